package handlers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnghia/tienlen/internal/deck"
	"github.com/dnghia/tienlen/internal/game"
)

func newTestServer() *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewServer(logger, nil, nil)
}

func newTestClient(s *Server) *client {
	c := &client{
		id:     uuid.New(),
		cancel: func() {},
		out:    make(chan interface{}, 64),
		logger: s.logger,
	}
	s.register(c)
	return c
}

// drain empties the client's outbound channel.
func drain(c *client) []interface{} {
	var out []interface{}
	for {
		select {
		case msg := <-c.out:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func lastOfType[T any](t *testing.T, msgs []interface{}) (T, bool) {
	t.Helper()
	var found T
	ok := false
	for _, m := range msgs {
		if v, isT := m.(T); isT {
			found = v
			ok = true
		}
	}
	return found, ok
}

func joinAll(t *testing.T, s *Server, roomID string, clients []*client) {
	t.Helper()
	for i, c := range clients {
		s.handleMessage(c, ClientMessage{
			Type:       ActionJoinRoom,
			RoomID:     roomID,
			PlayerName: fmt.Sprintf("player%d", i),
		})
	}
}

func startGame(t *testing.T, s *Server, roomID string, clients []*client) *game.Room {
	t.Helper()
	joinAll(t, s, roomID, clients)
	for _, c := range clients[1:] {
		s.handleMessage(c, ClientMessage{Type: ActionToggleReady, RoomID: roomID})
	}
	s.handleMessage(clients[0], ClientMessage{Type: ActionStartGame, RoomID: roomID})

	room, ok := s.Rooms.Get(roomID)
	require.True(t, ok)
	room.Mu.Lock()
	defer room.Mu.Unlock()
	require.Equal(t, game.StatePlaying, room.GameState)
	return room
}

func handOf(room *game.Room, id uuid.UUID) []deck.Card {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	p := room.PlayerByID(id)
	hand := make([]deck.Card, len(p.Hand))
	copy(hand, p.Hand)
	return hand
}

func TestJoinRoomBroadcasts(t *testing.T) {
	s := newTestServer()
	a := newTestClient(s)
	b := newTestClient(s)

	s.handleMessage(a, ClientMessage{Type: ActionJoinRoom, RoomID: "t1", PlayerName: "An"})

	msgs := drain(a)
	update, ok := lastOfType[RoomUpdateMessage](t, msgs)
	require.True(t, ok)
	assert.Equal(t, "t1", update.Room.ID)
	require.Len(t, update.Room.Players, 1)
	assert.Equal(t, "An", update.Room.Players[0].Name)

	// Every connected client gets the lobby refresh, members or not.
	list, ok := lastOfType[RoomsListMessage](t, drain(b))
	require.True(t, ok)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, 1, list.Rooms[0].PlayerCount)
	assert.Equal(t, game.StateWaiting, list.Rooms[0].State)
}

func TestJoinRoomFull(t *testing.T) {
	s := newTestServer()
	clients := make([]*client, 5)
	for i := range clients {
		clients[i] = newTestClient(s)
	}
	joinAll(t, s, "full", clients[:4])
	for _, c := range clients[:4] {
		drain(c)
	}

	s.handleMessage(clients[4], ClientMessage{Type: ActionJoinRoom, RoomID: "full", PlayerName: "late"})

	errMsg, ok := lastOfType[ErrorMessage](t, drain(clients[4]))
	require.True(t, ok)
	assert.Equal(t, "Phòng đã đầy!", errMsg.Message)

	// Seated members saw nothing new about the failed join.
	_, sawUpdate := lastOfType[RoomUpdateMessage](t, drain(clients[0]))
	assert.False(t, sawUpdate)
}

func TestStartGameDealsOwnHandsOnly(t *testing.T) {
	s := newTestServer()
	clients := make([]*client, 4)
	for i := range clients {
		clients[i] = newTestClient(s)
	}
	room := startGame(t, s, "t2", clients)

	for _, c := range clients {
		started, ok := lastOfType[game.GameStartedMessage](t, drain(c))
		require.True(t, ok)
		require.Len(t, started.Cards, 13)
		assert.Equal(t, 0, started.CurrentTurn)
		for _, ps := range started.Players {
			assert.Equal(t, 13, ps.CardCount)
		}
		// Recipient's cards match their seat's hand exactly.
		assert.Equal(t, handOf(room, c.id), started.Cards)
	}
}

func TestStartGameNotAllReady(t *testing.T) {
	s := newTestServer()
	a := newTestClient(s)
	b := newTestClient(s)
	joinAll(t, s, "t3", []*client{a, b})
	drain(a)

	s.handleMessage(a, ClientMessage{Type: ActionStartGame, RoomID: "t3"})

	errMsg, ok := lastOfType[ErrorMessage](t, drain(a))
	require.True(t, ok)
	assert.Equal(t, "Chờ tất cả người chơi sẵn sàng!", errMsg.Message)
}

func TestPlayMoveFlow(t *testing.T) {
	s := newTestServer()
	clients := make([]*client, 4)
	for i := range clients {
		clients[i] = newTestClient(s)
	}
	room := startGame(t, s, "t4", clients)
	for _, c := range clients {
		drain(c)
	}

	hand := handOf(room, clients[0].id)
	s.handleMessage(clients[0], ClientMessage{
		Type:   ActionPlayMove,
		RoomID: "t4",
		Cards:  []deck.Card{hand[0]},
	})

	for _, c := range clients {
		moved, ok := lastOfType[game.MovePlayedMessage](t, drain(c))
		require.True(t, ok)
		assert.Equal(t, 1, moved.CurrentTurn)
		assert.Equal(t, clients[0].id, moved.LastPlayerID)
		assert.Equal(t, 12, moved.Players[0].CardCount)
		assert.Equal(t, 13, moved.Players[1].CardCount)
	}
}

func TestPassWhileLeadingRejected(t *testing.T) {
	s := newTestServer()
	clients := make([]*client, 2)
	for i := range clients {
		clients[i] = newTestClient(s)
	}
	room := startGame(t, s, "t5", clients)
	for _, c := range clients {
		drain(c)
	}

	s.handleMessage(clients[0], ClientMessage{Type: ActionPassMove, RoomID: "t5"})

	errMsg, ok := lastOfType[ErrorMessage](t, drain(clients[0]))
	require.True(t, ok)
	assert.Equal(t, "Bạn đang dẫn vòng, không thể bỏ lượt!", errMsg.Message)

	room.Mu.Lock()
	assert.Equal(t, 0, room.CurrentTurn)
	assert.Empty(t, room.PassedPlayers)
	room.Mu.Unlock()
}

func TestOutOfTurnPlayRejected(t *testing.T) {
	s := newTestServer()
	clients := make([]*client, 3)
	for i := range clients {
		clients[i] = newTestClient(s)
	}
	room := startGame(t, s, "t6", clients)
	for _, c := range clients {
		drain(c)
	}

	hand := handOf(room, clients[1].id)
	s.handleMessage(clients[1], ClientMessage{
		Type:   ActionPlayMove,
		RoomID: "t6",
		Cards:  []deck.Card{hand[0]},
	})

	errMsg, ok := lastOfType[ErrorMessage](t, drain(clients[1]))
	require.True(t, ok)
	assert.Equal(t, "Chưa đến lượt của bạn!", errMsg.Message)
	// Nobody else heard about it.
	_, sawMove := lastOfType[game.MovePlayedMessage](t, drain(clients[0]))
	assert.False(t, sawMove)
}

func TestLeaveRoomDestroys(t *testing.T) {
	s := newTestServer()
	clients := make([]*client, 3)
	for i := range clients {
		clients[i] = newTestClient(s)
	}
	joinAll(t, s, "t7", clients)
	for _, c := range clients {
		drain(c)
	}

	s.handleMessage(clients[1], ClientMessage{Type: ActionLeaveRoom, RoomID: "t7"})

	for _, c := range clients {
		destroyed, ok := lastOfType[RoomDestroyedMessage](t, drain(c))
		require.True(t, ok, "every member is told the room is gone")
		assert.Equal(t, "Một người chơi đã thoát, phòng bị hủy.", destroyed.Message)
		assert.Empty(t, c.currentRoom())
	}

	_, exists := s.Rooms.Get("t7")
	assert.False(t, exists)
}

// A client seated in several rooms takes all of them down on disconnect,
// not just the one joined last. A room kept alive with a dead member would
// stall forever on the ghost's turn.
func TestDisconnectDestroysAllSeatedRooms(t *testing.T) {
	s := newTestServer()
	hopper := newTestClient(s)
	bystander := newTestClient(s)

	joinAll(t, s, "first", []*client{hopper, bystander})
	s.handleMessage(hopper, ClientMessage{Type: ActionJoinRoom, RoomID: "second", PlayerName: "hopper"})
	drain(hopper)
	drain(bystander)

	s.cleanupClient(hopper)

	_, exists := s.Rooms.Get("first")
	assert.False(t, exists, "the earlier room is destroyed too")
	_, exists = s.Rooms.Get("second")
	assert.False(t, exists)

	destroyed, ok := lastOfType[RoomDestroyedMessage](t, drain(bystander))
	require.True(t, ok, "the co-member of the earlier room is notified")
	assert.Equal(t, "Người chơi thoát, phòng bị hủy.", destroyed.Message)
	assert.Empty(t, bystander.currentRoom())

	assert.Nil(t, s.clientByID(hopper.id), "the client is deregistered")
}

func TestChatRelay(t *testing.T) {
	s := newTestServer()
	a := newTestClient(s)
	b := newTestClient(s)
	joinAll(t, s, "t8", []*client{a, b})
	drain(a)
	drain(b)

	s.handleMessage(a, ClientMessage{Type: ActionSendMessage, RoomID: "t8", Message: "chào cả bàn"})

	chat, ok := lastOfType[ChatBroadcastMessage](t, drain(b))
	require.True(t, ok)
	assert.Equal(t, "newChatMessage", chat.Type)
	assert.Equal(t, "player0", chat.Name)
	assert.Equal(t, "chào cả bàn", chat.Text)
}

func TestGetRoomsBroadcast(t *testing.T) {
	s := newTestServer()
	a := newTestClient(s)
	b := newTestClient(s)
	joinAll(t, s, "t9", []*client{a})
	drain(a)
	drain(b)

	s.handleMessage(b, ClientMessage{Type: ActionGetRooms})

	list, ok := lastOfType[RoomsListMessage](t, drain(a))
	require.True(t, ok)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "t9", list.Rooms[0].ID)
}

func TestUnknownRoomTargetedError(t *testing.T) {
	s := newTestServer()
	a := newTestClient(s)
	s.handleMessage(a, ClientMessage{Type: ActionPassMove, RoomID: "ghost"})

	errMsg, ok := lastOfType[ErrorMessage](t, drain(a))
	require.True(t, ok)
	assert.Equal(t, "Phòng không tồn tại!", errMsg.Message)
}
