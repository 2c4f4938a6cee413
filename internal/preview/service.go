package preview

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/peer"
)

// Service owns one peer connection per remote control connection and
// hooks each into the broadcaster.
type Service struct {
	iceServers  []string
	broadcaster *Broadcaster
	logger      *logrus.Entry

	mu      sync.Mutex
	players map[string]*peer.Player
}

func NewService(iceServers []string, b *Broadcaster) *Service {
	return &Service{
		iceServers:  iceServers,
		broadcaster: b,
		logger:      log.For("preview"),
		players:     map[string]*peer.Player{},
	}
}

// HandleOffer answers a viewer's offer through sig. A second offer from the
// same connection replaces the earlier peer.
func (s *Service) HandleOffer(connID string, sig peer.AnswerSender, payload json.RawMessage) error {
	s.Drop(connID)

	p, err := peer.NewPlayer(s.iceServers, sig)
	if err != nil {
		return fmt.Errorf("preview peer: %w", err)
	}
	if err := p.HandleOffer(payload); err != nil {
		p.Close()
		return fmt.Errorf("preview offer: %w", err)
	}

	s.mu.Lock()
	s.players[connID] = p
	s.mu.Unlock()
	s.broadcaster.Add(connID, p.Transport())
	s.logger.WithField("conn", connID).Info("preview viewer connected")

	go func() {
		<-p.Done()
		s.forget(connID, p)
	}()
	return nil
}

func (s *Service) HandleICECandidate(connID string, payload json.RawMessage) error {
	s.mu.Lock()
	p := s.players[connID]
	s.mu.Unlock()
	if p == nil {
		return fmt.Errorf("no preview peer for %s", connID)
	}
	return p.HandleICECandidate(payload)
}

// Drop closes the peer belonging to connID, if any.
func (s *Service) Drop(connID string) {
	s.mu.Lock()
	p := s.players[connID]
	s.mu.Unlock()
	if p != nil {
		p.Close()
		s.forget(connID, p)
	}
}

func (s *Service) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Close drops every peer.
func (s *Service) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Drop(id)
	}
}

func (s *Service) forget(connID string, p *peer.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.players[connID] != p {
		return
	}
	delete(s.players, connID)
	s.broadcaster.Remove(connID)
	s.logger.WithField("conn", connID).Info("preview viewer gone")
}
