package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hangoutz/internal/domain/user"
	"hangoutz/internal/events"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (user.User, error)
}

type RoomAuthorizer interface {
	CanJoinRoom(ctx context.Context, userID, conversationID uuid.UUID) error
}

type PresenceTracker interface {
	SetOnline(ctx context.Context, userID uuid.UUID, clientID string) error
	Refresh(ctx context.Context, userID uuid.UUID, clientID string) error
	SetOffline(ctx context.Context, userID uuid.UUID, clientID string) error
}

type ActivityRecorder interface {
	TouchLastActive(ctx context.Context, userID uuid.UUID) error
}

type Options struct {
	// Broadcaster carries gateway emissions. It defaults to the hub; with
	// the redis driver it publishes so other instances see typing and
	// status frames too.
	Broadcaster   events.Broadcaster
	Authorizer    RoomAuthorizer
	Presence      PresenceTracker
	Activity      ActivityRecorder
	RestrictRooms bool
	// RoomGrantTTL bounds how long a positive room check is reused by one
	// connection. Denials are kept for the connection's lifetime.
	RoomGrantTTL  time.Duration
	SendBuffer    int
	FrameLimits   *FrameLimits
	Logger        *Logger
}

// Gateway authenticates socket handshakes and turns client frames into room
// emissions.
type Gateway struct {
	hub           *Hub
	verifier      TokenVerifier
	broadcaster   events.Broadcaster
	authorizer    RoomAuthorizer
	presence      PresenceTracker
	activity      ActivityRecorder
	restrictRooms bool
	roomGrantTTL  time.Duration
	sendBuffer    int
	frameLimits   FrameLimits
	logger        *Logger
	upgrader      websocket.Upgrader
}

func NewGateway(hub *Hub, verifier TokenVerifier, opts Options) *Gateway {
	g := &Gateway{
		hub:           hub,
		verifier:      verifier,
		broadcaster:   opts.Broadcaster,
		authorizer:    opts.Authorizer,
		presence:      opts.Presence,
		activity:      opts.Activity,
		restrictRooms: opts.RestrictRooms,
		roomGrantTTL:  opts.RoomGrantTTL,
		sendBuffer:    opts.SendBuffer,
		frameLimits:   DefaultFrameLimits,
		logger:        opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	if g.broadcaster == nil {
		g.broadcaster = hub
	}
	if g.roomGrantTTL <= 0 {
		g.roomGrantTTL = defaultRoomGrantTTL
	}
	if g.sendBuffer <= 0 {
		g.sendBuffer = defaultSendBuffer
	}
	if opts.FrameLimits != nil {
		g.frameLimits = *opts.FrameLimits
	}
	if g.logger == nil {
		g.logger = hub.logger
	}
	return g
}

// Handle verifies the handshake credential and upgrades the connection. An
// invalid credential gets a 401 and no upgrade.
func (g *Gateway) Handle(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication error", "code": "UNAUTHORIZED"})
		return
	}
	u, err := g.verifier.VerifyToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, hangoutz_errors.ErrUnauthorized) {
			g.logger.Error("handshake verification failed", uuid.Nil, "", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication error", "code": "UNAUTHORIZED"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", u.ID, "", err)
		return
	}

	client := newClient(g, conn, u.ID, u.Name)
	g.connect(client)

	go client.writePump()
	go client.readPump()
}

func (g *Gateway) connect(c *Client) {
	g.hub.register(c)

	if g.activity != nil {
		if err := g.activity.TouchLastActive(c.ctx, c.userID); err != nil {
			g.logger.Warn("last active update failed", c.userID, c.id, zap.Error(err))
		}
	}
	if g.presence != nil {
		if err := g.presence.SetOnline(c.ctx, c.userID, c.id); err != nil {
			g.logger.Warn("presence update failed", c.userID, c.id, zap.Error(err))
		}
	}
	g.logger.Info("client connected", c.userID, c.id)
}

// heartbeat runs on every pong and keeps the shared presence record alive.
func (g *Gateway) heartbeat(c *Client) {
	if g.presence == nil {
		return
	}
	if err := g.presence.Refresh(c.ctx, c.userID, c.id); err != nil {
		g.logger.Warn("presence refresh failed", c.userID, c.id, zap.Error(err))
	}
}

func (g *Gateway) disconnect(c *Client) {
	if !g.hub.unregister(c) {
		return
	}

	// c.ctx is still live here; the read pump cancels it afterwards
	if g.activity != nil {
		if err := g.activity.TouchLastActive(c.ctx, c.userID); err != nil {
			g.logger.Warn("last active update failed", c.userID, c.id, zap.Error(err))
		}
	}
	if g.presence != nil {
		if err := g.presence.SetOffline(c.ctx, c.userID, c.id); err != nil {
			g.logger.Warn("presence update failed", c.userID, c.id, zap.Error(err))
		}
	}
	g.emitExcept(c, events.BroadcastRoom, events.UserStatus, events.StatusPayload{UserID: c.userID, Online: false})
	g.logger.Info("client disconnected", c.userID, c.id)
}

// dispatch handles one client frame. A panic is contained to the frame.
func (g *Gateway) dispatch(c *Client, frame events.Frame) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("frame handler panic", c.userID, c.id, fmt.Errorf("%v", r), zap.String("frame", frame.Event))
		}
	}()

	switch frame.Event {
	case events.TypingStart, events.TypingStop:
		g.handleTyping(c, frame)
	case events.ConversationJoin:
		convID, ok := g.conversationFor(c, frame, true)
		switch {
		case ok:
			g.hub.Join(c, events.ConversationRoom(convID))
		case convID != uuid.Nil:
			// membership was revoked since an earlier join
			g.hub.Leave(c, events.ConversationRoom(convID))
		}
	case events.ConversationLeave:
		var sig events.ConversationSignal
		if err := json.Unmarshal(frame.Data, &sig); err != nil {
			return
		}
		if convID, err := uuid.Parse(sig.ConversationID); err == nil {
			g.hub.Leave(c, events.ConversationRoom(convID))
		}
	case events.UserOnline:
		g.emitExcept(c, events.BroadcastRoom, events.UserStatus, events.StatusPayload{UserID: c.userID, Online: true})
	default:
		g.logger.Warn("unknown frame", c.userID, c.id, zap.String("frame", frame.Event))
	}
}

func (g *Gateway) handleTyping(c *Client, frame events.Frame) {
	convID, ok := g.conversationFor(c, frame, false)
	if !ok {
		return
	}
	payload := events.TypingPayload{UserID: c.userID, ConversationID: convID}
	name := events.UserStopTyping
	if frame.Event == events.TypingStart {
		payload.UserName = c.userName
		name = events.UserTyping
	}
	g.emitExcept(c, events.ConversationRoom(convID), name, payload)
}

// conversationFor parses the conversation id of a frame and, when rooms are
// restricted, checks that the user belongs to it. Grants are reused for
// roomGrantTTL unless fresh is set; denials stick. A denied frame still
// returns the parsed id.
func (g *Gateway) conversationFor(c *Client, frame events.Frame, fresh bool) (uuid.UUID, bool) {
	var sig events.ConversationSignal
	if err := json.Unmarshal(frame.Data, &sig); err != nil {
		g.logger.Warn("malformed frame data", c.userID, c.id, zap.String("frame", frame.Event))
		return uuid.Nil, false
	}
	convID, err := uuid.Parse(sig.ConversationID)
	if err != nil {
		g.logger.Warn("invalid conversation id", c.userID, c.id, zap.String("frame", frame.Event))
		return uuid.Nil, false
	}
	if !g.restrictRooms || g.authorizer == nil {
		return convID, true
	}

	grant, seen := c.grants[convID]
	if !seen || (grant.allowed && (fresh || time.Since(grant.checkedAt) > g.roomGrantTTL)) {
		err := g.authorizer.CanJoinRoom(c.ctx, c.userID, convID)
		if err != nil && !errors.Is(err, hangoutz_errors.ErrForbidden) {
			g.logger.Error("room authorization failed", c.userID, c.id, err)
			return uuid.Nil, false
		}
		grant = roomGrant{allowed: err == nil, checkedAt: time.Now()}
		c.grants[convID] = grant
	}
	if !grant.allowed {
		g.logger.Warn("room access denied", c.userID, c.id, zap.String("conversation_id", convID.String()))
	}
	return convID, grant.allowed
}

func (g *Gateway) emitExcept(c *Client, room, name string, data any) {
	env, err := events.NewEnvelope(room, name, data)
	if err != nil {
		g.logger.Error("envelope encode failed", c.userID, c.id, err)
		return
	}
	env.ExceptClient = c.id
	if err := g.broadcaster.Emit(c.ctx, env); err != nil {
		g.logger.Warn("emit failed", c.userID, c.id, zap.String("frame", name), zap.Error(err))
	}
}

func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
