package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/service"
	"github.com/campusbridge/meet/internal/signal"
	"github.com/campusbridge/meet/lib/logger/sl"
)

type CallController struct {
	calls    service.CallInteractor
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewCallController(calls service.CallInteractor, log *slog.Logger) *CallController {
	if log == nil {
		log = slog.Default()
	}
	return &CallController{
		calls: calls,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (c *CallController) GetCall(ctx *gin.Context) {
	callRecord, err := c.calls.GetCall(ctx.Request.Context(), ctx.Param("roomID"))
	if err != nil {
		if errors.Is(err, signal.ErrCallNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"call": callRecord})
}

func (c *CallController) WriteOffer(ctx *gin.Context) {
	var desc domain.SessionDescription
	if err := ctx.ShouldBindJSON(&desc); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session description"})
		return
	}

	if err := c.calls.WriteOffer(ctx.Request.Context(), ctx.Param("roomID"), desc); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *CallController) WriteAnswer(ctx *gin.Context) {
	var desc domain.SessionDescription
	if err := ctx.ShouldBindJSON(&desc); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session description"})
		return
	}

	err := c.calls.WriteAnswer(ctx.Request.Context(), ctx.Param("roomID"), desc)
	if err != nil {
		if errors.Is(err, signal.ErrNoOffer) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "no offer for room yet"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *CallController) AddCandidate(ctx *gin.Context) {
	side, ok := parseSide(ctx.Param("side"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "side must be offer or answer"})
		return
	}

	var cand domain.Candidate
	if err := ctx.ShouldBindJSON(&cand); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate"})
		return
	}

	if err := c.calls.AddCandidate(ctx.Request.Context(), ctx.Param("roomID"), side, cand); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *CallController) EndCall(ctx *gin.Context) {
	if err := c.calls.EndCall(ctx.Request.Context(), ctx.Param("roomID")); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// feedMessage is one event pushed over the change-feed WebSocket.
type feedMessage struct {
	Type      string             `json:"type"` // "call", "candidate" or "ended"
	Call      *domain.CallUpdate `json:"call,omitempty"`
	Candidate *domain.Candidate  `json:"candidate,omitempty"`
}

// Feed streams the negotiation record and one candidate collection to a
// browser peer over WebSocket. The peer picks the collection it consumes via
// ?side=, which is the one it did not write.
func (c *CallController) Feed(ctx *gin.Context) {
	roomID := ctx.Param("roomID")

	side, ok := parseSide(ctx.Query("side"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "side must be offer or answer"})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", sl.Err(err))
		return
	}
	defer conn.Close()

	watchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := c.calls.WatchCall(watchCtx, roomID)
	if err != nil {
		_ = conn.WriteJSON(gin.H{"error": err.Error()})
		return
	}
	candidates, err := c.calls.WatchCandidates(watchCtx, roomID, side)
	if err != nil {
		_ = conn.WriteJSON(gin.H{"error": err.Error()})
		return
	}

	// Reader only detects disconnects; the feed is one-way.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-watchCtx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				_ = conn.WriteJSON(feedMessage{Type: "ended"})
				return
			}
			if err := conn.WriteJSON(feedMessage{Type: "call", Call: &update}); err != nil {
				return
			}
		case cand, ok := <-candidates:
			if !ok {
				_ = conn.WriteJSON(feedMessage{Type: "ended"})
				return
			}
			if err := conn.WriteJSON(feedMessage{Type: "candidate", Candidate: &cand}); err != nil {
				return
			}
		}
	}
}

func parseSide(raw string) (domain.CandidateSide, bool) {
	switch domain.CandidateSide(raw) {
	case domain.SideOffer:
		return domain.SideOffer, true
	case domain.SideAnswer:
		return domain.SideAnswer, true
	default:
		return "", false
	}
}
