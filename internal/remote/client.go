package remote

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/log"
)

// Handler callbacks for incoming control messages. They run on the read
// goroutine.
type Handler struct {
	OnStatus   func(status StatusInfo)
	OnDisplays func(list []DisplayInfo)
	OnAnswer   func(payload json.RawMessage)
	OnError    func(msg string)
}

// Client is a websocket control client.
type Client struct {
	url     string
	handler Handler
	logger  *logrus.Entry

	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a control client.
func NewClient(url string, handler Handler) *Client {
	return &Client{
		url:     url,
		handler: handler,
		logger:  log.For("remote-client"),
		done:    make(chan struct{}),
	}
}

// Connect dials the player and starts reading messages.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("control dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.conn.Close()
	}
}

// Start asks the player to play file on display.
func (c *Client) Start(file string, display int, fallback string) error {
	return c.send(Message{Type: TypeStart, File: file, Display: display, Fallback: fallback})
}

func (c *Client) Stop() error {
	return c.send(Message{Type: TypeStop})
}

func (c *Client) RequestStatus() error {
	return c.send(Message{Type: TypeStatus})
}

func (c *Client) RequestDisplays() error {
	return c.send(Message{Type: TypeDisplays})
}

// SendOffer sends a preview SDP offer.
func (c *Client) SendOffer(payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, Payload: payload})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.WithError(err).Debug("control read error")
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeStatus:
		if c.handler.OnStatus != nil && msg.Status != nil {
			c.handler.OnStatus(*msg.Status)
		}
	case TypeDisplays:
		if c.handler.OnDisplays != nil {
			c.handler.OnDisplays(msg.List)
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.Payload)
		}
	case TypeError:
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePong:
		// heartbeat response, nothing to do
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(Message{Type: TypePing})
		}
	}
}
