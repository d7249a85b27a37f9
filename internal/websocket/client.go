package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hangoutz/internal/events"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxFrameSize      = 64 * 1024
	defaultSendBuffer = 256

	defaultRoomGrantTTL = 30 * time.Second
)

// Frame budgets per minute and connection.
var DefaultFrameLimits = FrameLimits{
	Typing:   120,
	Rooms:    60,
	Presence: 30,
}

type FrameLimits struct {
	Typing   int
	Rooms    int
	Presence int
}

type frameLimiter struct {
	mu         sync.Mutex
	limits     FrameLimits
	used       FrameLimits
	lastRefill time.Time
}

func newFrameLimiter(limits FrameLimits) *frameLimiter {
	return &frameLimiter{limits: limits, lastRefill: time.Now()}
}

func (l *frameLimiter) Allow(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastRefill) >= time.Minute {
		l.used = FrameLimits{}
		l.lastRefill = time.Now()
	}

	var used *int
	var limit int
	switch event {
	case events.TypingStart, events.TypingStop:
		used, limit = &l.used.Typing, l.limits.Typing
	case events.ConversationJoin, events.ConversationLeave:
		used, limit = &l.used.Rooms, l.limits.Rooms
	case events.UserOnline:
		used, limit = &l.used.Presence, l.limits.Presence
	default:
		return true
	}
	if *used >= limit {
		return false
	}
	*used++
	return true
}

type roomGrant struct {
	allowed   bool
	checkedAt time.Time
}

// Client is one authenticated socket. rooms is guarded by the hub lock;
// grants is only touched by the read pump.
type Client struct {
	gateway  *Gateway
	conn     *websocket.Conn
	send     chan []byte
	id       string
	userID   uuid.UUID
	userName string
	rooms    map[string]struct{}
	grants   map[uuid.UUID]roomGrant
	limiter  *frameLimiter
	ctx      context.Context
	cancel   context.CancelFunc
}

func newClient(g *Gateway, conn *websocket.Conn, userID uuid.UUID, userName string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		gateway:  g,
		conn:     conn,
		send:     make(chan []byte, g.sendBuffer),
		id:       uuid.NewString(),
		userID:   userID,
		userName: userName,
		rooms:    make(map[string]struct{}),
		grants:   make(map[uuid.UUID]roomGrant),
		limiter:  newFrameLimiter(g.frameLimits),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

func (c *Client) readPump() {
	defer func() {
		c.gateway.disconnect(c)
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.gateway.heartbeat(c)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.gateway.logger.Error("websocket unexpected close", c.userID, c.id, err)
			}
			return
		}

		var frame events.Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			c.gateway.logger.Warn("malformed frame", c.userID, c.id)
			continue
		}
		if !c.limiter.Allow(frame.Event) {
			c.gateway.logger.Warn("frame rate limit exceeded", c.userID, c.id, zap.String("frame", frame.Event))
			continue
		}
		c.gateway.dispatch(c, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
