// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/internal/service"
	"atlas/internal/state"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// msgTurnTimedOut is reported by both transports when a turn outlives its deadline.
const msgTurnTimedOut = "turn timed out"

// writeTurnError maps engine errors to statuses.
func writeTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, state.ErrInvalidState):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, msgTurnTimedOut)
	case errors.Is(err, service.ErrDiscoveryFailed):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// turnRequest is the body shared by the chat endpoints. Prior state fields
// are kept raw so they go through the codec's lenient checks.
type turnRequest struct {
	Message      string          `json:"message"`
	POIs         json.RawMessage `json:"pois"`
	Requirements json.RawMessage `json:"requirements"`
	Plan         json.RawMessage `json:"plan"`
}

func (r turnRequest) snapshot() state.Snapshot {
	return state.Snapshot{POIs: r.POIs, Requirements: r.Requirements, Options: r.Plan}
}
