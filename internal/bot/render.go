package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yourname/owe-bot/internal/domain"
	"github.com/yourname/owe-bot/internal/engine"
)

var texts = map[engine.Message]string{
	engine.MsgWelcome:          "Добрый день!",
	engine.MsgDebtorList:       "Список должников: %d шт",
	engine.MsgAskDebtorName:    "Введите имя нового должника>:)",
	engine.MsgEmptyName:        "Имя не может быть пустым. Введите имя ещё раз",
	engine.MsgDebtorAdded:      "Должник %s добавлен!",
	engine.MsgDebtorDeleted:    "Должник успешно удален",
	engine.MsgDebtorNotFound:   "❌ Должник не найден",
	engine.MsgAskAmount:        "Введите сумму долга",
	engine.MsgBadAmount:        "❌ Сумма должна быть целым числом, например 500 или -200. Введите сумму ещё раз",
	engine.MsgAskNote:          "Введите комментарий",
	engine.MsgEmptyNote:        "❌ Комментарий не может быть пустым. Введите комментарий",
	engine.MsgTransactionAdded: "Транзакция успешно добавлена",
	engine.MsgCancelled:        "Действие отменено",
	engine.MsgFailure:          "❌ Что-то пошло не так, попробуйте ещё раз",

	engine.BtnAddDebtor:      "Добавить человека",
	engine.BtnMyDebtors:      "Мои записи",
	engine.BtnAddTransaction: "Добавить транзакцию",
	engine.BtnDeleteDebtor:   "Удалить должника",
	engine.BtnBack:           "⬅️ Назад",
	engine.BtnCancel:         "Отмена",
}

const (
	// Telegram rejects longer messages.
	maxMessageRunes = 4096
	// Only the most recent transactions are listed in the detail view.
	maxDetailLines = 30
	// Debtor buttons per keyboard; the rest are not shown.
	maxDebtorButtons = 50
)

// Renderer turns engine responses into Telegram messages.
type Renderer struct {
	loc *time.Location
}

func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

func (r *Renderer) Render(resp engine.Response) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(resp.ConversationID, truncate(r.text(resp), maxMessageRunes))
	if kb, ok := keyboard(resp.Choices); ok {
		msg.ReplyMarkup = kb
	}
	return msg
}

func (r *Renderer) text(resp engine.Response) string {
	switch resp.Text {
	case engine.MsgDebtorList:
		return fmt.Sprintf(texts[resp.Text], len(resp.Debtors))
	case engine.MsgDebtorAdded:
		name := ""
		if resp.Debtor != nil {
			name = resp.Debtor.DisplayName
		}
		return fmt.Sprintf(texts[resp.Text], displayName(name))
	case engine.MsgDebtorDetail:
		if resp.Detail == nil {
			return ""
		}
		return r.detail(resp.Detail.Debtor, resp.Detail.Transactions, resp.Detail.Balance)
	}
	if s, ok := texts[resp.Text]; ok {
		return s
	}
	return string(resp.Text)
}

func (r *Renderer) detail(d domain.Debtor, txs []domain.Transaction, balance int64) string {
	var b strings.Builder
	b.WriteString(displayName(d.DisplayName))
	b.WriteString("\n")
	if len(txs) == 0 {
		b.WriteString("Транзакций нет")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Общая сумма: %d\n", balance))

	running := domain.RunningBalances(txs)
	from := 0
	if len(txs) > maxDetailLines {
		from = len(txs) - maxDetailLines
		b.WriteString(fmt.Sprintf("… ещё %d более ранних, итог до них: %d\n", from, running[from-1]))
	}
	for i := from; i < len(txs); i++ {
		t := txs[i]
		b.WriteString(fmt.Sprintf("%s: %s (%+d) = %d\n",
			t.OccurredAt.In(r.loc).Format("02/01/2006 15:04"), t.Note, t.Amount, running[i]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// keyboard puts each debtor on its own row, up to maxDebtorButtons, and the
// menu buttons together on the last row.
func keyboard(choices []engine.Choice) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(choices) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var menu []tgbotapi.InlineKeyboardButton
	for _, c := range choices {
		if c.Literal {
			if len(rows) >= maxDebtorButtons {
				continue
			}
			btn := tgbotapi.NewInlineKeyboardButtonData(displayName(c.Label), c.Action)
			rows = append(rows, []tgbotapi.InlineKeyboardButton{btn})
			continue
		}
		label, ok := texts[engine.Message(c.Label)]
		if !ok {
			label = c.Label
		}
		menu = append(menu, tgbotapi.NewInlineKeyboardButtonData(label, c.Action))
	}
	if len(menu) > 0 {
		rows = append(rows, menu)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func displayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
