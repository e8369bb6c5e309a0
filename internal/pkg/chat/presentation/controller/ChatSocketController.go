package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mohdafzal1700/max-chat/internal/infrastructure/identity"
	"github.com/mohdafzal1700/max-chat/internal/infrastructure/realtime"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/usecase"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/presentation/protocol"
)

const defaultReadTimeout = 60 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers connect cross-origin from the SPA host; the bearer token
		// is the actual admission gate.
		return true
	},
}

// ChatSocketController drives one websocket session per connection through
// Handshaking -> Active -> Closed. Identity is verified before the upgrade;
// a rejected credential refuses the connection with no partial state.
type ChatSocketController struct {
	log      *slog.Logger
	verifier identity.Verifier
	mailbox  *realtime.Mailbox
	presence *usecase.UpdatePresenceUseCase
	router   *MessageRouter

	sendBuffer   int
	storeTimeout time.Duration
}

func NewChatSocketController(
	log *slog.Logger,
	verifier identity.Verifier,
	mailbox *realtime.Mailbox,
	presence *usecase.UpdatePresenceUseCase,
	router *MessageRouter,
	sendBuffer int,
	storeTimeout time.Duration,
) *ChatSocketController {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &ChatSocketController{
		log:          log,
		verifier:     verifier,
		mailbox:      mailbox,
		presence:     presence,
		router:       router,
		sendBuffer:   sendBuffer,
		storeTimeout: storeTimeout,
	}
}

// Handle gates the handshake, upgrades the connection and processes frames
// until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handshaking: verify the credential before any protocol exchange.
		token := identity.TokenFromRequest(c.Request)
		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.storeTimeout)
		user, err := ctl.verifier.Verify(ctx, token)
		cancel()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing credential"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			ctl.log.Debug("websocket upgrade failed", "user_id", user.ID, "err", err)
			return
		}

		conn := realtime.NewConnection(user.ID, ws, ctl.sendBuffer)

		// Active: mailbox membership first, then presence, then the ack to
		// this connection only.
		ctl.mailbox.Join(conn)
		ctl.withStoreTimeout(func(ctx context.Context) {
			ctl.presence.SetOnline(ctx, user.ID)
		})
		_ = conn.WriteFrame(protocol.NewConnectionAck(user.ID))

		// Teardown must run exactly once even on abrupt transport failure.
		var closeOnce sync.Once
		teardown := func() {
			closeOnce.Do(func() {
				ctl.withStoreTimeout(func(ctx context.Context) {
					ctl.presence.SetOffline(ctx, user.ID)
				})
				ctl.mailbox.Leave(conn)
				conn.Close(websocket.CloseNormalClosure, "session closed")
				ctl.log.Info("session closed", "user_id", user.ID, "conn_id", conn.ID)
			})
		}
		defer teardown()

		ctl.log.Info("session active", "user_id", user.ID, "conn_id", conn.ID)

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		// Frames are processed strictly one at a time per connection; the
		// read loop does not start the next frame until the handler returns.
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !isExpectedClose(err) {
					ctl.log.Debug("websocket read failed", "user_id", user.ID, "err", err)
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			ctx, cancel := context.WithTimeout(context.Background(), ctl.storeTimeout)
			ctl.router.Dispatch(ctx, user, conn, data)
			cancel()
		}
	}
}

func (ctl *ChatSocketController) withStoreTimeout(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), ctl.storeTimeout)
	defer cancel()
	fn(ctx)
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, websocket.ErrCloseSent)
}
