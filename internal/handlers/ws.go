// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dnghia/tienlen/internal/auth"
	"github.com/dnghia/tienlen/internal/game"
)

// client is one live websocket session. Outbound messages go through a
// buffered channel drained by writePump, so broadcasts never block on a slow
// socket while a room lock is held.
type client struct {
	id     uuid.UUID
	cancel context.CancelFunc
	out    chan interface{}
	logger *logrus.Logger

	mu     sync.Mutex
	roomID string
}

// send pushes a message non-blockingly; a full channel drops the message.
func (c *client) send(msg interface{}) {
	select {
	case c.out <- msg:
	default:
		c.logger.Warnf("client %s: outbound channel full, dropping message", c.id)
	}
}

func (c *client) sendError(text string) {
	c.send(newError(text))
}

func (c *client) setRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// clearRoom forgets the room association if it still matches.
func (c *client) clearRoom(roomID string) {
	c.mu.Lock()
	if c.roomID == roomID {
		c.roomID = ""
	}
	c.mu.Unlock()
}

func (c *client) currentRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// WSHandler upgrades the connection, establishes the guest identity, and runs
// the session until the client goes away. A member disconnecting destroys
// their room for everyone, matching explicit leaveRoom.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := auth.EnsureGuest(w, r)
		if err != nil {
			s.logger.Warnf("guest auth failed: %v", err)
			http.Error(w, "authentication failed", http.StatusInternalServerError)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"tienlen"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			s.logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "handler exit")

		if conn.Subprotocol() != "tienlen" {
			conn.Close(websocket.StatusPolicyViolation, "client must speak the tienlen subprotocol")
			return
		}
		s.logger.Infof("player %s connected from %s", playerID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &client{
			id:     playerID,
			cancel: cancel,
			out:    make(chan interface{}, 16),
			logger: s.logger,
		}
		s.register(c)

		go s.writePump(ctx, conn, c)
		s.readPump(ctx, conn, c)

		s.cleanupClient(c)
		s.logger.Infof("player %s cleanup complete", playerID)
	}
}

// cleanupClient runs after the read loop exits. Every room the player holds
// a seat in is destroyed, not just the last one joined: a client that joined
// room A and then room B is still seated in A, and leaving a dead member
// there would stall A on the ghost's turn forever.
func (s *Server) cleanupClient(c *client) {
	for _, room := range s.Rooms.WithPlayer(c.id) {
		s.logger.Infof("player %s disconnected, destroying room %s", c.id, room.ID)
		s.destroyRoom(room, "Người chơi thoát, phòng bị hủy.")
	}
	s.deregister(c)
}

// readPump reads client intents until the connection closes.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				s.logger.Infof("websocket closed normally for player %s", c.id)
			} else if strings.Contains(err.Error(), "context canceled") {
				s.logger.Infof("websocket context canceled for player %s", c.id)
			} else {
				s.logger.Warnf("read error for player %s: %v", c.id, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			s.logger.Warnf("player %s sent non-text message type %d, ignoring", c.id, msgType)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warnf("invalid JSON from player %s: %v", c.id, err)
			c.sendError("Invalid JSON format")
			continue
		}

		s.handleMessage(c, msg)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// writePump drains the client's outbound channel onto the socket and pings
// periodically.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Warnf("marshal outbound message for player %s: %v", c.id, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.logger.Warnf("write to player %s failed: %v", c.id, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.logger.Warnf("ping to player %s failed, assuming disconnect: %v", c.id, err)
				return
			}
		}
	}
}

// handleMessage routes one client intent. Room state is only touched under
// the room's lock; every failure becomes a targeted error event and the
// connection stays open.
func (s *Server) handleMessage(c *client, msg ClientMessage) {
	switch msg.Type {
	case ActionJoinRoom:
		s.handleJoinRoom(c, msg)

	case ActionGetRooms:
		s.broadcastRooms()

	case ActionToggleReady:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		room.Mu.Lock()
		err := room.ToggleReady(c.id)
		if err == nil {
			room.BroadcastFn(RoomUpdateMessage{Type: "roomUpdate", Room: room.Snapshot()})
		}
		room.Mu.Unlock()
		if err != nil {
			c.sendError(errorText(err))
		}

	case ActionStartGame:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		room.Mu.Lock()
		err := room.Start()
		room.Mu.Unlock()
		if err != nil {
			c.sendError(errorText(err))
			return
		}
		s.broadcastRooms()

	case ActionPlayMove:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		room.Mu.Lock()
		err := room.PlayMove(c.id, msg.Cards)
		room.Mu.Unlock()
		if err != nil {
			c.sendError(errorText(err))
		}

	case ActionPassMove:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		room.Mu.Lock()
		err := room.Pass(c.id)
		room.Mu.Unlock()
		if err != nil {
			c.sendError(errorText(err))
		}

	case ActionSurrender:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		room.Mu.Lock()
		err := room.Surrender(c.id)
		room.Mu.Unlock()
		if err != nil {
			c.sendError(errorText(err))
			return
		}
		s.broadcastRooms()

	case ActionRematch:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		room.Mu.Lock()
		room.Rematch()
		room.Mu.Unlock()
		s.broadcastRooms()

	case ActionLeaveRoom:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		s.destroyRoom(room, "Một người chơi đã thoát, phòng bị hủy.")

	case ActionSendMessage:
		room, ok := s.roomFor(c, msg.RoomID)
		if !ok {
			return
		}
		room.Mu.Lock()
		chat := room.AddChat(c.id, msg.Message)
		room.BroadcastFn(ChatBroadcastMessage{Type: "newChatMessage", ChatMessage: chat})
		room.Mu.Unlock()
		s.journal.Publish(room.ID, "chat", c.id, nil)

	default:
		s.logger.Warnf("unknown action type %q from player %s", msg.Type, c.id)
		c.sendError("Unknown action type: " + msg.Type)
	}
}

func (s *Server) handleJoinRoom(c *client, msg ClientMessage) {
	name := msg.PlayerName
	if name == "" {
		name = "Khách"
	}

	room, _ := s.Rooms.GetOrCreate(msg.RoomID, s.wireRoom)

	room.Mu.Lock()
	var err error
	if room.PlayerByID(c.id) == nil {
		_, err = room.Join(c.id, name)
	}
	if err == nil {
		room.BroadcastFn(RoomUpdateMessage{Type: "roomUpdate", Room: room.Snapshot()})
	}
	room.Mu.Unlock()

	if err != nil {
		c.sendError(errorText(err))
		return
	}
	c.setRoom(msg.RoomID)
	s.logger.Infof("%s joined room %s", name, msg.RoomID)
	s.broadcastRooms()
}

// roomFor resolves a room id for an acting client, reporting a targeted error
// when it does not exist.
func (s *Server) roomFor(c *client, roomID string) (*game.Room, bool) {
	room, ok := s.Rooms.Get(roomID)
	if !ok {
		c.sendError("Phòng không tồn tại!")
		return nil, false
	}
	return room, ok
}
