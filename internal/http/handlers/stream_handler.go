// README: Websocket chat; each inbound frame is one streamed turn.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"atlas/internal/http/middleware"
	"atlas/internal/stream"
)

const (
	writeWait     = 10 * time.Second
	maxFrameBytes = 1 << 20
	// Frames received while a turn is running wait here; extras are dropped.
	pendingFrames = 4
)

type StreamHandler struct {
	driver   *stream.Driver
	upgrader websocket.Upgrader
	timeout  time.Duration
	logger   *zap.Logger
}

func NewStreamHandler(driver *stream.Driver, timeout time.Duration, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		driver: driver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origins are enforced by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		timeout: timeout,
		logger:  logger,
	}
}

// Chat handles GET /ws/chat. Turns on one connection run one at a time.
// Closing the connection cancels the running turn.
func (h *StreamHandler) Chat(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	userID := middleware.CallerUID(c)

	frames := make(chan []byte, pendingFrames)
	go func() {
		defer cancel()
		defer close(frames)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Info("websocket read ended", zap.Error(err))
				}
				return
			}
			select {
			case frames <- data:
			default:
				h.logger.Warn("dropping frame while turns are queued")
			}
		}
	}()

	for data := range frames {
		var req turnRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if h.write(conn, stream.ErrorMessage("invalid json")) != nil {
				return
			}
			continue
		}
		conv, err := req.snapshot().Hydrate()
		if err != nil {
			if h.write(conn, stream.ErrorMessage(err.Error())) != nil {
				return
			}
			continue
		}
		if !h.runTurn(ctx, conn, stream.Request{
			TurnID:  uuid.NewString(),
			UserID:  userID,
			Message: req.Message,
			State:   conv,
		}) {
			return
		}
	}
}

// runTurn relays one turn's messages and reports whether the connection is
// still usable.
func (h *StreamHandler) runTurn(ctx context.Context, conn *websocket.Conn, req stream.Request) bool {
	var (
		turnCtx context.Context
		cancel  context.CancelFunc
	)
	if h.timeout > 0 {
		turnCtx, cancel = context.WithTimeout(ctx, h.timeout)
	} else {
		turnCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var terminal bool
	messages := h.driver.Stream(turnCtx, req)
	for msg := range messages {
		if err := h.write(conn, msg); err != nil {
			h.logger.Info("websocket write failed", zap.String("turn_id", req.TurnID), zap.Error(err))
			cancel()
			for range messages {
			}
			return false
		}
		terminal = terminal || msg.Terminal()
	}
	if !terminal && turnCtx.Err() != nil && ctx.Err() == nil {
		// Timed out with the client still connected.
		return h.write(conn, stream.ErrorMessage(msgTurnTimedOut)) == nil
	}
	return ctx.Err() == nil
}

func (h *StreamHandler) write(conn *websocket.Conn, msg stream.Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
