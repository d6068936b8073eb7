package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yourname/owe-bot/internal/engine"
)

// API is the part of *tgbotapi.BotAPI the handler talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	api      API
	engine   *engine.Engine
	renderer *Renderer
	log      *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	queues map[int64][]tgbotapi.Update // a key is present while its worker runs
	wg     sync.WaitGroup
}

func NewHandler(api API, eng *engine.Engine, r *Renderer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		api:      api,
		engine:   eng,
		renderer: r,
		log:      log,
		now:      time.Now,
		queues:   make(map[int64][]tgbotapi.Update),
	}
}

// Dispatch queues upd behind earlier updates of the same chat. Each chat has
// at most one worker draining its queue in arrival order; different chats run
// in parallel.
func (h *Handler) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	key := chatKey(upd)

	h.mu.Lock()
	q, running := h.queues[key]
	h.queues[key] = append(q, upd)
	if running {
		h.mu.Unlock()
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go h.drain(ctx, key)
}

func (h *Handler) drain(ctx context.Context, key int64) {
	defer h.wg.Done()
	for {
		h.mu.Lock()
		q := h.queues[key]
		if len(q) == 0 {
			delete(h.queues, key)
			h.mu.Unlock()
			return
		}
		upd := q[0]
		h.queues[key] = q[1:]
		h.mu.Unlock()

		h.HandleUpdate(ctx, upd)
	}
}

// chatKey is the chat an update belongs to; updates without one share key 0.
func chatKey(upd tgbotapi.Update) int64 {
	if q := upd.CallbackQuery; q != nil && q.Message != nil && q.Message.Chat != nil {
		return q.Message.Chat.ID
	}
	if upd.Message != nil && upd.Message.Chat != nil {
		return upd.Message.Chat.ID
	}
	return 0
}

// Wait blocks until every dispatched update is done.
func (h *Handler) Wait() { h.wg.Wait() }

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if q := upd.CallbackQuery; q != nil {
		// обязательно отвечаем Telegram, иначе кнопка "висит"
		defer func() {
			if _, err := h.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
				h.log.Warn("answer callback", "err", err)
			}
		}()
	}

	ev, ok := EventFromUpdate(upd, h.now())
	if !ok {
		return
	}

	resp, handled := h.engine.Handle(ctx, ev)
	if !handled {
		return
	}

	if _, err := h.api.Send(h.renderer.Render(resp)); err != nil {
		h.log.Error("send message", "conversation_id", resp.ConversationID, "err", err)
	}
}

// EventFromUpdate maps a Telegram update to an engine event. Only private
// chats are served; channel posts, inline queries and the like are dropped.
func EventFromUpdate(upd tgbotapi.Update, now time.Time) (engine.Event, bool) {
	if q := upd.CallbackQuery; q != nil {
		if q.Message == nil || q.Message.Chat == nil || q.From == nil || !q.Message.Chat.IsPrivate() {
			return engine.Event{}, false
		}
		return engine.Event{
			ConversationID: q.Message.Chat.ID,
			SenderID:       q.From.ID,
			Kind:           engine.Selection,
			Payload:        q.Data,
			Timestamp:      now,
		}, true
	}

	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return engine.Event{}, false
	}

	ev := engine.Event{
		ConversationID: msg.Chat.ID,
		SenderID:       msg.From.ID,
		Kind:           engine.Text,
		Payload:        msg.Text,
		Timestamp:      msg.Time(),
	}
	if msg.IsCommand() {
		ev.Kind = engine.Command
		ev.Payload = msg.Command()
	}
	return ev, true
}
