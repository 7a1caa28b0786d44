package chatclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"openchat/internal/transcript"
)

type frame struct {
	Type   string             `json:"type"`
	Tables []string           `json:"tables"`
	Change *transcript.Change `json:"change"`
}

type subscription struct {
	conn     *websocket.Conn
	table    string
	readWait time.Duration
	ready    chan struct{}
	errs     chan error
	done     chan struct{}
	closed   chan struct{}
	once     sync.Once
}

func (c *Client) wsURL(table string) string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.base.Path + "/api/ws"
	u.RawQuery = url.Values{"table": {table}}.Encode()
	return u.String()
}

// Subscribe opens one websocket per table. handler runs on the socket's
// read goroutine, so changes arrive in delivery order.
func (c *Client) Subscribe(ctx context.Context, table string, handler transcript.ChangeHandler) (transcript.Subscription, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL(table), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return nil, fmt.Errorf("dial %s feed: %w", table, err)
	}

	s := &subscription{
		conn:     conn,
		table:    table,
		readWait: 2 * c.pingInterval,
		ready:    make(chan struct{}),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	conn.SetPingHandler(s.onPing)
	go s.read(handler)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Unsubscribe()
		case <-s.done:
		}
	}()

	c.logger.Debugw("Subscribed", "table", table)
	return s, nil
}

func (s *subscription) read(handler transcript.ChangeHandler) {
	defer close(s.done)

	acked := false
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readWait))
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			select {
			case <-s.closed:
			default:
				s.errs <- err
			}
			return
		}

		switch f.Type {
		case "ack":
			if !acked {
				acked = true
				close(s.ready)
			}
		case "change":
			if f.Change != nil && f.Change.Table == s.table {
				handler(*f.Change)
			}
		}
	}
}

// onPing extends the read deadline and answers with a pong.
func (s *subscription) onPing(data string) error {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.readWait))
	err := s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

func (s *subscription) Ready() <-chan struct{} { return s.ready }

func (s *subscription) Err() <-chan error { return s.errs }

// Unsubscribe closes the socket and waits for the read loop to exit.
func (s *subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	<-s.done
	return err
}
