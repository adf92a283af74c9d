package websocket

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/polybasket/polybasket/pkg/types"
	"go.uber.org/zap"
)

// Auth holds CLOB API credentials. The market channel is public; credentials
// are attached to the subscribe message only when at least one is set.
type Auth struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Empty reports whether no credential is set.
func (a Auth) Empty() bool {
	return a.APIKey == "" && a.Secret == "" && a.Passphrase == ""
}

type subscribeMessage struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
	Auth      *Auth    `json:"auth,omitempty"`
}

// Config holds stream client configuration.
type Config struct {
	URL            string
	AssetIDs       []string
	Auth           Auth
	PingInterval   time.Duration
	RecvTimeout    time.Duration
	DialTimeout    time.Duration
	ReconnectDelay time.Duration
	FrameBuffer    int
	Logger         *zap.Logger
}

// Client maintains a subscription to the CLOB market channel and emits raw
// frames in arrival order. Each session is independent: after any failure the
// client dials fresh and resubscribes, and the server answers with full
// snapshots. Frame delivery blocks rather than drops, so slow consumers
// backpressure the socket instead of reordering the book.
type Client struct {
	config       Config
	logger       *zap.Logger
	reconnectMgr *ReconnectManager
	frames       chan types.Frame
}

// New creates a new stream client.
func New(cfg Config) *Client {
	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectDelay,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.2,
	}

	return &Client{
		config:       cfg,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		frames:       make(chan types.Frame, cfg.FrameBuffer),
	}
}

// Frames returns the channel of raw frames. It is closed when Run returns.
func (c *Client) Frames() <-chan types.Frame {
	return c.frames
}

// Run connects, streams frames, and reconnects on failure until the context
// is canceled.
func (c *Client) Run(ctx context.Context) {
	defer close(c.frames)

	conn, err := c.connect(ctx)
	for {
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err == nil && conn != nil {
			c.reconnectMgr.Reset()
			sessionErr := c.session(ctx, conn)
			conn = nil
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("stream-session-ended", zap.Error(sessionErr))
		}

		err = c.reconnectMgr.Reconnect(ctx, func(ctx context.Context) error {
			var cerr error
			conn, cerr = c.connect(ctx)
			return cerr
		})
		if err != nil {
			return
		}
	}
}

// connect dials the market channel and sends the subscribe message.
func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.DialTimeout,
	}

	c.logger.Info("connecting-to-websocket", zap.String("url", c.config.URL))

	conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	msg := subscribeMessage{
		AssetsIDs: c.config.AssetIDs,
		Type:      "market",
	}
	if !c.config.Auth.Empty() {
		msg.Auth = &c.config.Auth
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("marshal subscribe message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write subscribe message: %w", err)
	}

	ConnectsTotal.Inc()
	ActiveConnections.Set(1)
	c.logger.Info("websocket-subscribed",
		zap.Int("asset-count", len(c.config.AssetIDs)),
		zap.Bool("authenticated", !c.config.Auth.Empty()))

	return conn, nil
}

// session owns one connection: a keepalive goroutine plus the read loop.
// Returns the error that ended the session; the connection is closed either
// way.
func (c *Client) session(ctx context.Context, conn *websocket.Conn) error {
	sessionCtx, cancel := context.WithCancel(ctx)

	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		c.pingLoop(sessionCtx, conn)
	}()

	// Teardown order matters: the ping loop must be told to stop before we
	// wait for it. A receive timeout can fire on a connection that still
	// accepts writes, so the loop only exits via the canceled context.
	defer func() {
		cancel()
		conn.Close()
		<-pingDone
		ActiveConnections.Set(0)
	}()

	// Unblock the read on cancellation.
	go func() {
		<-sessionCtx.Done()
		conn.Close()
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.config.RecvTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		asOf := time.Now().UTC()

		text := strings.ToValidUTF8(string(message), "�")
		if text == "PING" || text == "PONG" {
			KeepalivesDiscardedTotal.Inc()
			continue
		}

		FramesReceivedTotal.Inc()
		FrameBytes.Observe(float64(len(text)))

		select {
		case c.frames <- types.Frame{AsOf: asOf, Data: []byte(text)}:
		case <-sessionCtx.Done():
			return sessionCtx.Err()
		}
	}
}

// pingLoop sends an application-level text "PING" on the keepalive interval.
// The CLOB market channel expects text pings, not websocket control frames.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(time.Second)
			if err := conn.SetWriteDeadline(deadline); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
				c.logger.Warn("ping-error", zap.Error(err))
				return
			}
			PingsSentTotal.Inc()
		}
	}
}
