// Package engine turns independent chat events into multi-step flows.
//
// Each conversation is either idle or waiting for one piece of text (a debtor
// name, an amount, a note). The pending step lives in a session.Store; the
// engine is the only writer. Events for the same conversation are handled one
// at a time, events for different conversations run in parallel.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourname/owe-bot/internal/domain"
	"github.com/yourname/owe-bot/internal/ledger"
	"github.com/yourname/owe-bot/internal/session"
)

type Engine struct {
	ledger   *ledger.Ledger
	sessions *session.Store
	locks    *keyedMutex
	log      *slog.Logger
}

func New(l *ledger.Ledger, s *session.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{ledger: l, sessions: s, locks: newKeyedMutex(), log: log}
}

// Handle processes ev and returns the response to show. handled is false when
// the event does not fit the conversation's current state; nothing changes then.
func (e *Engine) Handle(ctx context.Context, ev Event) (resp Response, handled bool) {
	unlock := e.locks.Lock(ev.ConversationID)
	defer unlock()

	cont, pending := e.sessions.Get(ev.ConversationID)
	log := e.log.With(
		"event_id", uuid.Must(uuid.NewV7()).String(),
		"conversation_id", ev.ConversationID,
		"sender_id", ev.SenderID,
		"kind", ev.Kind.String(),
		"state", cont.State.String(),
	)
	log.DebugContext(ctx, "event received", "payload_len", len(ev.Payload))

	switch ev.Kind {
	case Command:
		resp, handled = e.onCommand(ev)
	case Selection:
		if pending {
			resp, handled = e.onPendingSelection(ev)
		} else {
			resp, handled = e.onSelection(ctx, log, ev)
		}
	case Text:
		if pending {
			resp, handled = e.onText(ctx, log, ev, cont)
		}
	}

	if !handled {
		log.DebugContext(ctx, "event ignored")
		return Response{}, false
	}
	resp.ConversationID = ev.ConversationID
	return resp, true
}

func (e *Engine) onCommand(ev Event) (Response, bool) {
	switch ev.Payload {
	case CmdStart:
		e.sessions.Clear(ev.ConversationID)
		return menu(MsgWelcome), true
	case CmdCancel:
		e.sessions.Clear(ev.ConversationID)
		return menu(MsgCancelled), true
	}
	return Response{}, false
}

// While a step is pending only cancel is accepted from the keyboard.
func (e *Engine) onPendingSelection(ev Event) (Response, bool) {
	if ev.Payload != ActionCancel {
		return Response{}, false
	}
	e.sessions.Clear(ev.ConversationID)
	return menu(MsgCancelled), true
}

func (e *Engine) onSelection(ctx context.Context, log *slog.Logger, ev Event) (Response, bool) {
	name, id, ok := parseAction(ev.Payload)
	if !ok {
		return Response{}, false
	}

	switch {
	case name == ActionDebtors && id == 0:
		list, err := e.ledger.Debtors(ctx, ev.SenderID)
		if err != nil {
			return e.fail(ctx, log, ev, err), true
		}
		choices := make([]Choice, 0, len(list)+1)
		for _, d := range list {
			choices = append(choices, Choice{Label: d.DisplayName, Action: ActionDebtor(d.ID), Literal: true})
		}
		choices = append(choices, button(BtnAddDebtor, ActionAddDebtor))
		return Response{Text: MsgDebtorList, Debtors: list, Choices: choices}, true

	case name == ActionAddDebtor && id == 0:
		e.sessions.Set(ev.ConversationID, session.Continuation{State: session.AwaitingDebtorName})
		return prompt(MsgAskDebtorName), true

	case name == prefixDebtor && id > 0:
		detail, err := e.ledger.Detail(ctx, ev.SenderID, id)
		if err != nil {
			return e.fail(ctx, log, ev, err), true
		}
		return Response{
			Text:   MsgDebtorDetail,
			Detail: &detail,
			Choices: []Choice{
				button(BtnAddTransaction, ActionAddTransaction(id)),
				button(BtnDeleteDebtor, ActionDeleteDebtor(id)),
				button(BtnBack, ActionDebtors),
			},
		}, true

	case name == prefixDeleteDebtor && id > 0:
		if err := e.ledger.Remove(ctx, ev.SenderID, id); err != nil {
			return e.fail(ctx, log, ev, err), true
		}
		log.InfoContext(ctx, "debtor deleted", "debtor_id", id)
		return menu(MsgDebtorDeleted), true

	case name == prefixAddTx && id > 0:
		if _, err := e.ledger.Debtor(ctx, ev.SenderID, id); err != nil {
			return e.fail(ctx, log, ev, err), true
		}
		e.sessions.Set(ev.ConversationID, session.Continuation{State: session.AwaitingAmount, DebtorID: id})
		return prompt(MsgAskAmount), true
	}
	return Response{}, false
}

func (e *Engine) onText(ctx context.Context, log *slog.Logger, ev Event, cont session.Continuation) (Response, bool) {
	switch cont.State {
	case session.AwaitingDebtorName:
		d, err := e.ledger.Register(ctx, ev.SenderID, ev.Payload)
		if errors.Is(err, domain.ErrValidation) {
			e.sessions.Set(ev.ConversationID, cont)
			return prompt(MsgEmptyName), true
		}
		if err != nil {
			return e.fail(ctx, log, ev, err), true
		}
		e.sessions.Clear(ev.ConversationID)
		log.InfoContext(ctx, "debtor created", "debtor_id", d.ID)
		resp := menu(MsgDebtorAdded)
		resp.Debtor = &d
		return resp, true

	case session.AwaitingAmount:
		amount, err := domain.ParseAmount(ev.Payload)
		if err != nil {
			e.sessions.Set(ev.ConversationID, cont)
			return prompt(MsgBadAmount), true
		}
		e.sessions.Set(ev.ConversationID, session.Continuation{
			State:    session.AwaitingNote,
			DebtorID: cont.DebtorID,
			Amount:   amount,
		})
		return prompt(MsgAskNote), true

	case session.AwaitingNote:
		at := ev.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		tx, err := e.ledger.Record(ctx, cont.DebtorID, cont.Amount, ev.Payload, at)
		if errors.Is(err, domain.ErrValidation) {
			e.sessions.Set(ev.ConversationID, cont)
			return prompt(MsgEmptyNote), true
		}
		if err != nil {
			return e.fail(ctx, log, ev, err), true
		}
		e.sessions.Clear(ev.ConversationID)
		log.InfoContext(ctx, "transaction created", "transaction_id", tx.ID, "debtor_id", tx.DebtorID)
		return menu(MsgTransactionAdded), true
	}
	return Response{}, false
}

// fail resets the conversation and reports the error to the user.
func (e *Engine) fail(ctx context.Context, log *slog.Logger, ev Event, err error) Response {
	e.sessions.Clear(ev.ConversationID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConstraint) {
		log.WarnContext(ctx, "debtor missing", "err", err)
		return menu(MsgDebtorNotFound)
	}
	log.ErrorContext(ctx, "operation failed", "err", err)
	return menu(MsgFailure)
}

func menu(text Message) Response {
	return Response{
		Text: text,
		Choices: []Choice{
			button(BtnAddDebtor, ActionAddDebtor),
			button(BtnMyDebtors, ActionDebtors),
		},
	}
}

func prompt(text Message) Response {
	return Response{Text: text, Choices: []Choice{button(BtnCancel, ActionCancel)}}
}
