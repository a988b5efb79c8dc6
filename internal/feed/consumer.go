package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed between server pings before the connection is considered dead.
	pongWait = 60 * time.Second

	// Time allowed to write a control frame.
	writeWait = 10 * time.Second

	maxMessageSize = 1 << 20
)

// Consumer keeps a Board in sync with the push channel. On every
// (re)connect it calls Resync before applying live messages, because the
// channel has no sequence numbers to fill gaps with.
type Consumer struct {
	url    string
	token  func() string
	board  *Board
	dialer *websocket.Dialer

	// Resync fetches the full state, typically into the board via Replace.
	Resync func(ctx context.Context) error
	// OnMessage runs after each message has been applied.
	OnMessage func(Message)
	// NewBackOff builds the reconnect policy. Defaults to exponential
	// backoff with no elapsed-time limit.
	NewBackOff func() backoff.BackOff
}

// NewConsumer creates a Consumer for the channel at rawURL. token is read on
// every dial so refreshed access tokens are picked up.
func NewConsumer(rawURL string, token func() string, board *Board) *Consumer {
	return &Consumer{
		url:    rawURL,
		token:  token,
		board:  board,
		dialer: websocket.DefaultDialer,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Board returns the board the consumer feeds.
func (c *Consumer) Board() *Board { return c.board }

// Run connects and consumes until ctx is cancelled or the backoff policy
// gives up.
func (c *Consumer) Run(ctx context.Context) error {
	bo := c.NewBackOff()
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			bo.Reset()
		}
		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("feed: giving up: %w", err)
		}
		log.Warn().Err(err).Dur("retry_in", wait).Msg("feed disconnected")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Consumer) dialURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("feed: parse url: %w", err)
	}
	if c.token != nil {
		q := u.Query()
		q.Set("token", c.token())
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// session runs one connection. connected reports whether the dial succeeded.
func (c *Consumer) session(ctx context.Context) (connected bool, err error) {
	target, err := c.dialURL()
	if err != nil {
		return false, err
	}
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("feed: dial: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()

	if c.Resync != nil {
		if err := c.Resync(ctx); err != nil {
			log.Error().Err(err).Msg("feed resync")
		}
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return true, errors.New("feed: closed by server")
			}
			return true, fmt.Errorf("feed: read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		for _, line := range bytes.Split(raw, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			m, err := Decode(line)
			if err != nil {
				log.Warn().Err(err).Msg("feed: skip message")
				continue
			}
			c.board.Apply(m)
			if c.OnMessage != nil {
				c.OnMessage(m)
			}
		}
	}
}
