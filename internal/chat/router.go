// README: Chat router; turns inbound messages into store operations and replies.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"statusbot/internal/modules/order"
	"statusbot/internal/modules/vocab"
	"statusbot/internal/parse"
	"statusbot/internal/types"
)

// Message is one inbound chat message as delivered by the transport.
type Message struct {
	ChatID int64
	Actor  types.Actor
	Text   string
}

// Settings is the router's view of the bot configuration. It is fetched
// per message so config-file reloads take effect without a restart.
type Settings struct {
	GroupID      int64
	Admins       map[string]bool
	Vocab        *vocab.Table
	Policy       parse.Policy
	HistoryLimit int
}

func (s Settings) isAdmin(actorID string) bool {
	return s.Admins[actorID]
}

// Router implements the command surface of the bot. It owns no I/O
// beyond the order service and the admin notifier; sending the replies
// is the transport's job.
type Router struct {
	orders   *order.Service
	settings func() Settings
	notify   Notifier
	log      *zap.Logger
}

func NewRouter(orders *order.Service, settings func() Settings, notify Notifier, log *zap.Logger) *Router {
	return &Router{orders: orders, settings: settings, notify: notify, log: log}
}

// Handle processes one message and returns the replies to send. A nil
// return means the message is not for the bot; busy group chats stay
// quiet. Failures surface as a generic reply, never as raw internals.
func (r *Router) Handle(ctx context.Context, msg Message) []Reply {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	st := r.settings()
	log := r.log.With(
		zap.String("msg_id", uuid.NewString()[:8]),
		zap.String("actor", msg.Actor.ID),
	)

	if strings.HasPrefix(text, "/") {
		return r.handleCommand(ctx, st, msg, text, log)
	}

	res := parse.Message(text, st.Policy)
	switch res.Kind {
	case parse.KindLookup:
		return r.handleLookup(ctx, res.IDs[0], log)
	case parse.KindUpdate:
		if msg.ChatID != st.GroupID {
			return nil
		}
		return r.handleUpdate(ctx, st, msg.Actor, res, log)
	case parse.KindBulkDone:
		if msg.ChatID != st.GroupID {
			return nil
		}
		return r.handleBulkDone(ctx, msg.Actor, log)
	default:
		return nil
	}
}

func (r *Router) handleLookup(ctx context.Context, id types.ID, log *zap.Logger) []Reply {
	rec, err := r.orders.Lookup(ctx, id)
	if err == order.ErrNotFound {
		return []Reply{{Text: "No record found for this order."}}
	}
	if err != nil {
		log.Error("lookup failed", zap.String("order", string(id)), zap.Error(err))
		return []Reply{{Text: genericFailure}}
	}
	return []Reply{{Text: renderRecord(id, rec)}}
}

func (r *Router) handleUpdate(ctx context.Context, st Settings, actor types.Actor, res parse.Result, log *zap.Logger) []Reply {
	status, ok := st.Vocab.Resolve(res.Status)
	if !ok {
		// Recognized shape but not a known status word: agents chatting,
		// not updating. Stay silent.
		return nil
	}

	applied, err := r.orders.Apply(ctx, order.ApplyCommand{IDs: res.IDs, Status: status, Actor: actor})
	if err != nil {
		log.Error("apply failed", zap.Error(err))
		return []Reply{{Text: genericFailure}}
	}

	log.Info("orders updated",
		zap.String("status", string(status)),
		zap.Int("updated", len(applied.Updated)),
		zap.Int("rejected", len(applied.Rejected)),
	)

	if len(applied.Notify) > 0 {
		r.notifyAdmins(ctx, renderEscalation(applied.Notify, actor), log)
	}
	return renderApply(applied, actor)
}

func (r *Router) handleBulkDone(ctx context.Context, actor types.Actor, log *zap.Logger) []Reply {
	res, err := r.orders.BulkDone(ctx, order.BulkDoneCommand{Actor: actor})
	if err != nil {
		log.Error("bulk done failed", zap.Error(err))
		return []Reply{{Text: genericFailure}}
	}
	if len(res.Updated) == 0 {
		return []Reply{{Text: "No open orders to close.", Ephemeral: true}}
	}
	log.Info("bulk close", zap.Int("closed", len(res.Updated)))
	return []Reply{{Text: renderBulkDone(res, actor), Ephemeral: true}}
}

func (r *Router) handleCommand(ctx context.Context, st Settings, msg Message, text string, log *zap.Logger) []Reply {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	// Group bots receive commands as "/cmd@BotName".
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start", "/help":
		return []Reply{{Text: helpText}}

	case "/myorders":
		orders, err := r.orders.OrdersByActor(ctx, msg.Actor.ID)
		if err != nil {
			log.Error("myorders failed", zap.Error(err))
			return []Reply{{Text: genericFailure}}
		}
		return []Reply{{Text: renderMyOrders(orders, msg.Actor)}}

	case "/history":
		if !st.isAdmin(msg.Actor.ID) {
			return []Reply{{Text: adminOnly}}
		}
		limit := st.HistoryLimit
		if limit <= 0 {
			limit = 10
		}
		recent, err := r.orders.Recent(ctx, limit)
		if err != nil {
			log.Error("history failed", zap.Error(err))
			return []Reply{{Text: genericFailure}}
		}
		return []Reply{{Text: renderHistory(recent)}}

	case "/stats":
		if !st.isAdmin(msg.Actor.ID) {
			return []Reply{{Text: adminOnly}}
		}
		stats, err := r.orders.DailyStats(ctx, time.Now().In(order.BusinessZone))
		if err != nil {
			log.Error("stats failed", zap.Error(err))
			return []Reply{{Text: genericFailure}}
		}
		return []Reply{{Text: renderStats(stats)}}

	case "/reset":
		if !st.isAdmin(msg.Actor.ID) {
			return []Reply{{Text: adminOnly}}
		}
		if err := r.orders.Reset(ctx); err != nil {
			log.Error("reset failed", zap.Error(err))
			return []Reply{{Text: genericFailure}}
		}
		log.Warn("store reset", zap.String("by", msg.Actor.ID))
		return []Reply{{Text: "Order history has been reset."}}

	case "/undo":
		if !st.isAdmin(msg.Actor.ID) {
			return []Reply{{Text: adminOnly}}
		}
		if len(fields) < 2 {
			return []Reply{{Text: "Usage: /undo <order number>"}}
		}
		id := types.ID(fields[1])
		restored, err := r.orders.Undo(ctx, order.UndoCommand{ID: id})
		if err == order.ErrNotFound {
			return []Reply{{Text: "No record found for this order."}}
		}
		if err != nil {
			log.Error("undo failed", zap.String("order", string(id)), zap.Error(err))
			return []Reply{{Text: genericFailure}}
		}
		log.Warn("order reverted", zap.String("order", string(id)), zap.String("restored", string(restored)))
		return []Reply{{Text: renderUndo(id, restored)}}

	default:
		return nil
	}
}

func (r *Router) notifyAdmins(ctx context.Context, text string, log *zap.Logger) {
	if r.notify == nil {
		return
	}
	if err := r.notify.NotifyAdmins(ctx, text); err != nil {
		log.Warn("admin notification failed", zap.Error(err))
	}
}
