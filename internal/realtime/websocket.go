// Package realtime is the storefront's client side of the realtime chat
// server: a lazily dialled websocket carrying JSON envelopes, and the
// registry of rooms joined on it.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/gorilla/websocket"
)

// Wire event names.
const (
	EventJoinAdmin  = "joinAdmin"
	EventJoinChat   = "joinChat"
	EventLeaveChat  = "leaveChat"
	EventTyping     = "typing"
	EventNewMessage = "newMessage"
	EventChatClosed = "chatClosed"
)

const writeWait = 5 * time.Second

var ErrClosed = errors.New("realtime client is closed")

// Envelope is one frame on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives every inbound event in arrival order.
type Handler func(event string, data json.RawMessage)

type Options struct {
	URL          string
	Header       http.Header
	DialTimeout  time.Duration
	PingInterval time.Duration
}

// Client is one websocket connection to the realtime server. It dials on
// first use, re-dials on the next use after the connection drops and
// re-joins every registered room when it does.
type Client struct {
	opts   Options
	dialer *websocket.Dialer
	logger *slog.Logger
	rooms  *Rooms

	mu     sync.Mutex
	conn   *websocket.Conn
	stop   chan struct{}
	closed bool

	writeMu sync.Mutex

	subsMu sync.RWMutex
	subs   map[uint64]Handler
	nextID uint64

	wg sync.WaitGroup
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return &Client{
		opts:   opts,
		dialer: &websocket.Dialer{HandshakeTimeout: opts.DialTimeout, Proxy: http.ProxyFromEnvironment},
		logger: logger.With(slog.String("component", "realtime")),
		rooms:  NewRooms(),
		subs:   make(map[uint64]Handler),
	}
}

// Subscribe registers h and returns a function that removes it.
func (c *Client) Subscribe(h Handler) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = h

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

func (c *Client) JoinAdmin(ctx context.Context) error {
	return c.join(ctx, AdminRoom)
}

func (c *Client) JoinChat(ctx context.Context, chatID string) error {
	return c.join(ctx, ChatRoom(chatID))
}

// LeaveChat never dials: a dropped connection has already left every room.
func (c *Client) LeaveChat(_ context.Context, chatID string) error {
	room := ChatRoom(chatID)
	if !c.rooms.Leave(room) {
		return nil
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	env, err := envelope(EventLeaveChat, chatID)
	if err != nil {
		return err
	}
	return c.writeOrDrop(conn, env)
}

func (c *Client) Typing(ctx context.Context, ev models.TypingEvent) error {
	env, err := envelope(EventTyping, ev)
	if err != nil {
		return err
	}

	conn, _, err := c.ensureConn(ctx)
	if err != nil {
		return err
	}
	return c.writeOrDrop(conn, env)
}

// Connected reports whether a connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

// Rooms returns the rooms currently joined.
func (c *Client) Rooms() []string {
	return c.rooms.Joined()
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		conn.Close()
	}

	c.wg.Wait()
	return nil
}

func (c *Client) join(ctx context.Context, room string) error {
	if !c.rooms.Join(room) {
		return nil
	}

	conn, fresh, err := c.ensureConn(ctx)
	if err != nil {
		// the room stays registered and is joined on the next dial
		return err
	}
	if fresh {
		return nil
	}

	env, err := joinEnvelope(room)
	if err != nil {
		return err
	}
	return c.writeOrDrop(conn, env)
}

// ensureConn returns the open connection, dialling if needed. fresh is true
// when this call dialled, in which case every registered room has already
// been re-joined.
func (c *Client) ensureConn(ctx context.Context) (*websocket.Conn, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, ErrClosed
	}
	if c.conn != nil {
		return c.conn, false, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, c.opts.URL, c.opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.logger.Warn("Realtime dial failed", slog.String("url", c.opts.URL), slog.Any("error", err))
		return nil, false, fmt.Errorf("dial realtime server: %w", err)
	}

	metrics.RealtimeReconnects.Inc()

	if timeout := c.readTimeout(); timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(timeout))
		})
	}

	stop := make(chan struct{})
	c.conn = conn
	c.stop = stop

	c.wg.Add(2)
	go c.readLoop(conn)
	go c.pingLoop(conn, stop)

	for _, room := range c.rooms.Joined() {
		env, err := joinEnvelope(room)
		if err != nil {
			continue
		}
		if err := c.write(conn, env); err != nil {
			c.logger.Warn("Re-join failed", slog.String("room", room), slog.Any("error", err))
			c.conn = nil
			close(stop)
			c.stop = nil
			conn.Close()
			return nil, false, fmt.Errorf("re-join %s: %w", room, err)
		}
	}

	c.logger.Info("Realtime connected", slog.Int("rooms", len(c.rooms.Joined())))
	return conn, true, nil
}

func (c *Client) readTimeout() time.Duration {
	return 2 * c.opts.PingInterval
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.dropConn(conn, err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("Malformed realtime frame", slog.Any("error", err))
			continue
		}

		c.dispatch(env)
	}
}

func (c *Client) dispatch(env Envelope) {
	c.subsMu.RLock()
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, c.subs[id])
	}
	c.subsMu.RUnlock()

	for _, h := range handlers {
		h(env.Event, env.Data)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	defer c.wg.Done()

	if c.opts.PingInterval <= 0 {
		<-stop
		return
	}

	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.dropConn(conn, err)
				return
			}
		}
	}
}

// dropConn forgets conn if it is still current; the next use re-dials.
func (c *Client) dropConn(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		if c.stop != nil {
			close(c.stop)
			c.stop = nil
		}
		c.logger.Info("Realtime connection dropped", slog.Any("error", cause))
	}
	c.mu.Unlock()

	conn.Close()
}

func (c *Client) write(conn *websocket.Conn, env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}

func (c *Client) writeOrDrop(conn *websocket.Conn, env Envelope) error {
	if err := c.write(conn, env); err != nil {
		c.dropConn(conn, err)
		return fmt.Errorf("send %s: %w", env.Event, err)
	}
	return nil
}

func envelope(event string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}

func joinEnvelope(room string) (Envelope, error) {
	if room == AdminRoom {
		return envelope(EventJoinAdmin, nil)
	}
	chatID, ok := ChatID(room)
	if !ok {
		return Envelope{}, fmt.Errorf("unknown room %q", room)
	}
	return envelope(EventJoinChat, chatID)
}
