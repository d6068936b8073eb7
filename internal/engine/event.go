package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourname/owe-bot/internal/domain"
	"github.com/yourname/owe-bot/internal/ledger"
)

// Kind tells how an inbound event should be read.
type Kind int

const (
	Command Kind = iota
	Selection
	Text
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "command"
	case Selection:
		return "selection"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Event is one inbound message from the transport. ConversationID keys the
// session; SenderID owns the debtors it touches.
type Event struct {
	ConversationID int64
	SenderID       int64
	Kind           Kind
	Payload        string
	Timestamp      time.Time
}

const (
	CmdStart  = "start"
	CmdCancel = "cancel"
)

// Message is a key the presentation layer turns into text.
type Message string

const (
	MsgWelcome          Message = "welcome"
	MsgDebtorList       Message = "debtor_list"
	MsgAskDebtorName    Message = "ask_debtor_name"
	MsgEmptyName        Message = "empty_name"
	MsgDebtorAdded      Message = "debtor_added"
	MsgDebtorDetail     Message = "debtor_detail"
	MsgDebtorDeleted    Message = "debtor_deleted"
	MsgDebtorNotFound   Message = "debtor_not_found"
	MsgAskAmount        Message = "ask_amount"
	MsgBadAmount        Message = "bad_amount"
	MsgAskNote          Message = "ask_note"
	MsgEmptyNote        Message = "empty_note"
	MsgTransactionAdded Message = "transaction_added"
	MsgCancelled        Message = "cancelled"
	MsgFailure          Message = "failure"

	BtnAddDebtor      Message = "btn_add_debtor"
	BtnMyDebtors      Message = "btn_my_debtors"
	BtnAddTransaction Message = "btn_add_transaction"
	BtnDeleteDebtor   Message = "btn_delete_debtor"
	BtnBack           Message = "btn_back"
	BtnCancel         Message = "btn_cancel"
)

// Choice is one button. When Literal is set Label is shown as is (a debtor
// name); otherwise it is a Message key.
type Choice struct {
	Label   string
	Action  string
	Literal bool
}

func button(key Message, action string) Choice {
	return Choice{Label: string(key), Action: action}
}

// Response is what the engine wants shown. Debtors, Debtor and Detail are
// filled depending on Text.
type Response struct {
	ConversationID int64
	Text           Message
	Debtors        []domain.Debtor
	Debtor         *domain.Debtor
	Detail         *ledger.Detail
	Choices        []Choice
}

// Action tokens carried by selections.
const (
	ActionDebtors   = "debtors"
	ActionAddDebtor = "debtor_add"
	ActionCancel    = "cancel"

	prefixDebtor       = "debtor"
	prefixAddTx        = "tx_add"
	prefixDeleteDebtor = "debtor_delete"
)

func ActionDebtor(id int64) string {
	return fmt.Sprintf("%s:%d", prefixDebtor, id)
}

func ActionAddTransaction(id int64) string {
	return fmt.Sprintf("%s:%d", prefixAddTx, id)
}

func ActionDeleteDebtor(id int64) string {
	return fmt.Sprintf("%s:%d", prefixDeleteDebtor, id)
}

// parseAction splits "name:id". Tokens without an id return id 0.
func parseAction(token string) (name string, id int64, ok bool) {
	name, rest, found := strings.Cut(token, ":")
	if !found {
		return name, 0, name != ""
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return name, id, true
}
