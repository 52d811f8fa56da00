// internal/handlers/server.go
package handlers

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dnghia/tienlen/internal/game"
	"github.com/dnghia/tienlen/internal/history"
	"github.com/dnghia/tienlen/internal/journal"
)

// Server owns the room registry and the set of live client connections. It is
// the bridge between websocket traffic and the game engine: inbound intents
// are dispatched under the target room's lock, and engine broadcasts fan out
// through each client's buffered outbound channel.
type Server struct {
	Rooms *game.RoomStore

	logger  *logrus.Logger
	journal *journal.Publisher
	history *history.Store

	mu      sync.Mutex
	clients map[uuid.UUID]*client
}

// NewServer wires a Server. journal and hist may be nil (features disabled).
func NewServer(logger *logrus.Logger, jrnl *journal.Publisher, hist *history.Store) *Server {
	return &Server{
		Rooms:   game.NewRoomStore(),
		logger:  logger,
		journal: jrnl,
		history: hist,
		clients: make(map[uuid.UUID]*client),
	}
}

// register adds a client to the registry. A second connection presenting the
// same guest identity replaces the first; the old connection's pumps are
// cancelled, exactly like a lobby rejoin.
func (s *Server) register(c *client) {
	s.mu.Lock()
	old, replaced := s.clients[c.id]
	s.clients[c.id] = c
	s.mu.Unlock()

	if replaced && old != c {
		s.logger.Infof("client %s re-established connection, dropping old one", c.id)
		old.cancel()
	}
}

// deregister removes a client, unless a newer connection already took the slot.
func (s *Server) deregister(c *client) {
	s.mu.Lock()
	if current, ok := s.clients[c.id]; ok && current == c {
		delete(s.clients, c.id)
	}
	s.mu.Unlock()
}

func (s *Server) clientByID(id uuid.UUID) *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients[id]
}

func (s *Server) allClients() []*client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

// broadcastRooms pushes the lobby snapshot to every connected client. Called
// whenever any room's membership or state changes.
func (s *Server) broadcastRooms() {
	msg := RoomsListMessage{Type: "roomsList", Rooms: s.Rooms.Listings()}
	for _, c := range s.allClients() {
		c.send(msg)
	}
}

// wireRoom injects the network-facing callbacks into a freshly created room.
// The broadcast closures are invoked while the room lock is held; client sends
// are non-blocking pushes onto buffered channels, so no websocket write ever
// happens under the lock.
func (s *Server) wireRoom(r *game.Room) {
	roomID := r.ID

	r.BroadcastFn = func(msg interface{}) {
		for _, p := range r.Players {
			if c := s.clientByID(p.ID); c != nil {
				c.send(msg)
			}
		}
	}
	r.BroadcastToPlayerFn = func(playerID uuid.UUID, msg interface{}) {
		if c := s.clientByID(playerID); c != nil {
			c.send(msg)
		}
	}
	r.Journal = func(action string, actorID uuid.UUID, payload map[string]interface{}) {
		s.journal.Publish(roomID, action, actorID, payload)
	}
	r.OnGameEnd = func(winner string, results []game.PlayerResult) {
		s.history.RecordMatchAsync(roomID, winner, results)
	}
}

// destroyRoom evicts every member, notifies them, and removes the room.
func (s *Server) destroyRoom(r *game.Room, reason string) {
	notice := RoomDestroyedMessage{Type: "roomDestroyed", Message: reason}

	r.Mu.Lock()
	members := make([]uuid.UUID, 0, len(r.Players))
	for _, p := range r.Players {
		members = append(members, p.ID)
	}
	r.Mu.Unlock()

	for _, id := range members {
		if c := s.clientByID(id); c != nil {
			c.send(notice)
			c.clearRoom(r.ID)
		}
	}
	s.Rooms.Delete(r.ID)
	s.broadcastRooms()
}

// errorText maps engine errors to the player-facing message strings.
func errorText(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomFull):
		return "Phòng đã đầy!"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "Cần ít nhất 2 người chơi!"
	case errors.Is(err, game.ErrNotAllReady):
		return "Chờ tất cả người chơi sẵn sàng!"
	case errors.Is(err, game.ErrNotYourTurn):
		return "Chưa đến lượt của bạn!"
	case errors.Is(err, game.ErrInvalidCombination):
		return "Bộ bài không hợp lệ!"
	case errors.Is(err, game.ErrTooWeak):
		return "Bài không đủ mạnh!"
	case errors.Is(err, game.ErrCardNotOwned):
		return "Bài không có trên tay!"
	case errors.Is(err, game.ErrCannotPassWhileLeading):
		return "Bạn đang dẫn vòng, không thể bỏ lượt!"
	case errors.Is(err, game.ErrGameOver):
		return "Ván đã kết thúc!"
	case errors.Is(err, game.ErrNotPlaying):
		return "Ván chưa bắt đầu!"
	case errors.Is(err, game.ErrNotInRoom):
		return "Bạn không ở trong phòng này!"
	default:
		return err.Error()
	}
}
