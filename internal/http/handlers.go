// README: Handlers for the chat-bridge webhook, order reads and admin ops.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"statusbot/internal/chat"
	"statusbot/internal/modules/order"
	"statusbot/internal/types"
)

type inboundMessage struct {
	ChatID    int64  `json:"chat_id"`
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	Text      string `json:"text"`
}

type replyPayload struct {
	Text      string `json:"text"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
}

// HandleMessage is the chat-bridge webhook: the transport posts every
// inbound message here and sends back whatever replies it gets. An empty
// reply list means the bot has nothing to say.
func (s *Server) HandleMessage(c *gin.Context) {
	var req inboundMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ActorID == "" {
		writeError(c, http.StatusBadRequest, "missing actor_id")
		return
	}

	replies := s.chat.Handle(c.Request.Context(), chat.Message{
		ChatID: req.ChatID,
		Actor:  types.Actor{ID: req.ActorID, Name: req.ActorName},
		Text:   req.Text,
	})

	out := make([]replyPayload, 0, len(replies))
	for _, r := range replies {
		out = append(out, replyPayload{Text: r.Text, Ephemeral: r.Ephemeral})
	}
	c.JSON(http.StatusOK, gin.H{"replies": out})
}

type orderPayload struct {
	ID      types.ID      `json:"order_id"`
	Status  string        `json:"status"`
	Agent   string        `json:"agent"`
	Updated time.Time     `json:"updated_at"`
	History []order.Entry `json:"history"`
}

func toOrderPayload(id types.ID, rec *order.Record) orderPayload {
	return orderPayload{
		ID:      id,
		Status:  string(rec.Status),
		Agent:   rec.ActorName,
		Updated: rec.Timestamp,
		History: rec.History,
	}
}

func (s *Server) HandleGetOrder(c *gin.Context) {
	id := types.ID(c.Param("id"))
	rec, err := s.orders.Lookup(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderPayload(id, rec))
}

func (s *Server) HandleActorOrders(c *gin.Context) {
	listed, err := s.orders.OrdersByActor(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	out := make([]orderPayload, 0, len(listed))
	for _, o := range listed {
		out = append(out, toOrderPayload(o.ID, &o.Record))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// HandleStats reports daily aggregates. Defaults to today on the
// business clock; ?date=YYYY-MM-DD selects another day.
func (s *Server) HandleStats(c *gin.Context) {
	day := time.Now().In(order.BusinessZone)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, order.BusinessZone)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		day = parsed
	}
	stats, err := s.orders.DailyStats(c.Request.Context(), day)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":        day.Format("2006-01-02"),
		"total":       stats.Total,
		"completed":   stats.Completed,
		"in_progress": stats.InProgress,
		"escalated":   stats.Escalated,
		"per_actor":   stats.PerActor,
	})
}

func (s *Server) HandleHistory(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	recent, err := s.orders.Recent(c.Request.Context(), limit)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	out := make([]orderPayload, 0, len(recent))
	for _, o := range recent {
		out = append(out, toOrderPayload(o.ID, &o.Record))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (s *Server) HandleReset(c *gin.Context) {
	if err := s.orders.Reset(c.Request.Context()); err != nil {
		writeOrderError(c, err)
		return
	}
	s.log.Warn("order store reset via admin api")
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) HandleUndo(c *gin.Context) {
	id := types.ID(c.Param("id"))
	restored, err := s.orders.Undo(c.Request.Context(), order.UndoCommand{ID: id})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": string(restored)})
}
