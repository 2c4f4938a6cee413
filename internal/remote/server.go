// Package remote exposes the playback controller over a websocket control
// channel and provides the matching client.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/peer"
	"github.com/junsooki/vitrine/internal/playback"
)

const writeWait = 5 * time.Second

// Player is the part of the playback controller the server drives.
type Player interface {
	Start(req playback.Request) error
	Stop()
	Status() playback.Status
	Subscribe() (<-chan playback.Status, func())
	Displays() []display.Descriptor
}

// Previewer answers preview offers. Optional.
type Previewer interface {
	HandleOffer(connID string, sig peer.AnswerSender, payload json.RawMessage) error
	HandleICECandidate(connID string, payload json.RawMessage) error
	Drop(connID string)
}

type Server struct {
	player   Player
	preview  Previewer
	upgrader websocket.Upgrader
	logger   *logrus.Entry

	mu    sync.Mutex
	conns map[string]*conn
}

// NewServer creates a control server. preview may be nil.
func NewServer(player Player, preview Previewer) *Server {
	return &Server{
		player:  player,
		preview: preview,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: log.For("remote"),
		conns:  map[string]*conn{},
	}
}

// ListenAndServe serves the control endpoint at path until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s)

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	s.logger.WithFields(logrus.Fields{"addr": addr, "path": path}).Info("control server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &conn{id: uuid.NewString(), ws: ws}
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	s.serve(c)
}

func (s *Server) serve(c *conn) {
	logger := s.logger.WithField("conn", c.id)
	logger.WithFields(logrus.Fields{
		"remote":  c.ws.RemoteAddr().String(),
		"clients": s.connections(),
	}).Info("control client connected")

	updates, cancel := s.player.Subscribe()
	defer cancel()
	done := make(chan struct{})
	defer close(done)

	defer func() {
		if s.preview != nil {
			s.preview.Drop(c.id)
		}
		s.mu.Lock()
		delete(s.conns, c.id)
		s.mu.Unlock()
		c.ws.Close()
		logger.WithField("clients", s.connections()).Info("control client disconnected")
	}()

	_ = c.send(Message{Type: TypeStatus, Status: newStatusInfo(s.player.Status())})
	go c.pushStatus(updates, done)

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Debug("control read ended")
			}
			return
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) dispatch(c *conn, msg Message) {
	var err error
	switch msg.Type {
	case TypeStart:
		err = s.player.Start(playback.Request{File: msg.File, Display: msg.Display, Fallback: msg.Fallback})
		if err == nil {
			err = c.send(Message{Type: TypeStatus, ID: msg.ID, Status: newStatusInfo(s.player.Status())})
		}
	case TypeStop:
		s.player.Stop()
		err = c.send(Message{Type: TypeStatus, ID: msg.ID, Status: newStatusInfo(s.player.Status())})
	case TypeStatus:
		err = c.send(Message{Type: TypeStatus, ID: msg.ID, Status: newStatusInfo(s.player.Status())})
	case TypeDisplays:
		err = c.send(Message{Type: TypeDisplays, ID: msg.ID, List: newDisplayList(s.player.Displays())})
	case TypeOffer:
		if s.preview == nil {
			err = errPreviewDisabled
			break
		}
		err = s.preview.HandleOffer(c.id, c, msg.Payload)
	case TypeICECandidate:
		if s.preview == nil {
			err = errPreviewDisabled
			break
		}
		err = s.preview.HandleICECandidate(c.id, msg.Payload)
	case TypePing:
		err = c.send(Message{Type: TypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		logger := s.logger.WithError(err).WithFields(logrus.Fields{"conn": c.id, "type": msg.Type})
		if playback.IsUserError(err) {
			logger.Debug("control request refused")
		} else {
			logger.Warn("control request failed")
		}
		_ = c.send(Message{Type: TypeError, ID: msg.ID, Msg: err.Error()})
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.ws.Close()
	}
}

var errPreviewDisabled = errors.New("preview is disabled")

// conn is one control client. Writes are serialized; it doubles as the
// signaler for that client's preview peer.
type conn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

func (c *conn) pushStatus(updates <-chan playback.Status, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := c.send(Message{Type: TypeStatus, Status: newStatusInfo(st)}); err != nil {
				return
			}
		}
	}
}

func (c *conn) SendAnswer(payload json.RawMessage) error {
	return c.send(Message{Type: TypeAnswer, Payload: payload})
}
