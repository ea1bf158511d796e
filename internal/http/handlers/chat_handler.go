// README: Chat handlers; one-shot turns plus direct POI search and planning.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"atlas/internal/http/middleware"
	"atlas/internal/intent"
	"atlas/internal/service"
	"atlas/internal/state"
)

type ChatHandler struct {
	planner *service.TripPlanner
	timeout time.Duration
	logger  *zap.Logger
}

func NewChatHandler(planner *service.TripPlanner, timeout time.Duration, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{planner: planner, timeout: timeout, logger: logger}
}

type chatResp struct {
	TurnID       string                  `json:"turn_id"`
	Intents      []intent.Intent         `json:"intents"`
	POIs         []state.POI             `json:"pois"`
	Requirements []state.Requirement     `json:"requirements"`
	Plan         []state.ItineraryOption `json:"plan"`
	Degraded     bool                    `json:"degraded"`
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(c, http.StatusBadRequest, "message is required")
		return
	}
	conv, err := req.snapshot().Hydrate()
	if err != nil {
		writeTurnError(c, err)
		return
	}

	ctx, cancel := h.withTimeout(c.Request.Context())
	defer cancel()

	turnID := uuid.NewString()
	out, err := h.planner.PlanTrip(ctx, service.Turn{
		ID:      turnID,
		UserID:  middleware.CallerUID(c),
		Message: req.Message,
		State:   conv,
	})
	if err != nil {
		h.logger.Warn("chat turn failed", zap.String("turn_id", turnID), zap.Error(err))
		writeTurnError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, chatResp{
		TurnID:       turnID,
		Intents:      orEmpty(out.Intents),
		POIs:         orEmpty(out.State.POIs),
		Requirements: orEmpty(out.State.Requirements),
		Plan:         orEmpty(out.State.Options),
		Degraded:     out.Degraded,
	})
}

type searchReq struct {
	Query string `json:"query"`
}

// SearchPOIs handles POST /pois/search.
func (h *ChatHandler) SearchPOIs(c *gin.Context) {
	var req searchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := h.withTimeout(c.Request.Context())
	defer cancel()

	pois, err := h.planner.SearchPOIs(ctx, req.Query)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"pois": orEmpty(pois)})
}

// Plan handles POST /plan: re-plans the given state without classifying.
func (h *ChatHandler) Plan(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	conv, err := req.snapshot().Hydrate()
	if err != nil {
		writeTurnError(c, err)
		return
	}
	if len(conv.POIs) == 0 {
		writeError(c, http.StatusBadRequest, "pois must be a non-empty list")
		return
	}

	ctx, cancel := h.withTimeout(c.Request.Context())
	defer cancel()

	options := h.planner.Plan(ctx, conv.POIs, conv.Requirements, conv.Options)
	writeJSON(c, http.StatusOK, gin.H{"plan": orEmpty(options)})
}

func (h *ChatHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
