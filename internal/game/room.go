// internal/game/room.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dnghia/tienlen/internal/deck"
)

// GameState is the room lifecycle phase.
type GameState string

const (
	StateWaiting GameState = "waiting"
	StatePlaying GameState = "playing"
)

const (
	MaxPlayers = 4
	HandSize   = 13
)

// Player is one seat in a room. Slot 0 is the host and is implicitly ready.
type Player struct {
	ID    uuid.UUID
	Name  string
	Hand  []deck.Card
	Ready bool
}

// JournalFunc records a room action for the external historian. Implementations
// must not block gameplay.
type JournalFunc func(action string, actorID uuid.UUID, payload map[string]interface{})

// Room holds the entire state of one game session in memory.
//
// All exported methods assume the caller holds Mu; the protocol layer acquires
// it once per inbound event so that state mutation and the resulting broadcast
// snapshot are atomic. BroadcastFn and BroadcastToPlayerFn are injected by the
// protocol layer; the engine itself never touches the network.
type Room struct {
	ID   string
	Name string
	Bet  string
	Type string

	Players       []*Player
	GameState     GameState
	CurrentTurn   int
	LastMove      []deck.Card
	LastPlayerID  uuid.UUID
	PassedPlayers map[uuid.UUID]bool
	IsGameOver    bool
	ChatHistory   []ChatMessage

	Mu sync.Mutex

	BroadcastFn         func(msg interface{})
	BroadcastToPlayerFn func(playerID uuid.UUID, msg interface{})
	Journal             JournalFunc

	// OnGameEnd is invoked after a win or surrender with the final standings,
	// e.g. to archive the match.
	OnGameEnd func(winner string, results []PlayerResult)
}

// NewRoom creates an empty waiting room with the lobby cosmetics the listing
// exposes (generated name, bet label, table type).
func NewRoom(id string) *Room {
	bet := fmt.Sprintf("%dK", rand.Intn(50)+1)
	typ := "casual"
	if rand.Float64() > 0.7 {
		typ = "rich"
	}
	return &Room{
		ID:            id,
		Name:          fmt.Sprintf("Bàn #%s", id),
		Bet:           bet,
		Type:          typ,
		GameState:     StateWaiting,
		PassedPlayers: make(map[uuid.UUID]bool),
	}
}

// Join seats a new player. Fails with ErrRoomFull at 4 seats.
func (r *Room) Join(playerID uuid.UUID, name string) (*Player, error) {
	if len(r.Players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	p := &Player{ID: playerID, Name: name}
	r.Players = append(r.Players, p)
	r.journal("join", playerID, map[string]interface{}{"name": name})
	return p, nil
}

// PlayerByID returns the seated player, or nil.
func (r *Room) PlayerByID(id uuid.UUID) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerIndex(id uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ToggleReady flips the player's ready flag. Meaningful only while waiting.
func (r *Room) ToggleReady(actorID uuid.UUID) error {
	p := r.PlayerByID(actorID)
	if p == nil {
		return ErrNotInRoom
	}
	p.Ready = !p.Ready
	return nil
}

// Start deals a fresh shuffled deck and moves the room into play. Requires at
// least two seated players with every non-host player ready; the host (slot 0)
// is implicitly ready.
func (r *Room) Start() error {
	if len(r.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	for i, p := range r.Players {
		if i > 0 && !p.Ready {
			return ErrNotAllReady
		}
	}

	cards := deck.New()
	deck.Shuffle(cards)
	hands, err := deck.Deal(cards[:len(r.Players)*HandSize], len(r.Players), HandSize)
	if err != nil {
		return err
	}
	for i, p := range r.Players {
		p.Hand = hands[i]
	}

	r.GameState = StatePlaying
	r.CurrentTurn = 0
	r.LastMove = nil
	r.LastPlayerID = uuid.Nil
	r.PassedPlayers = make(map[uuid.UUID]bool)
	r.IsGameOver = false

	summaries := r.Summaries()
	for _, p := range r.Players {
		r.broadcastToPlayer(p.ID, GameStartedMessage{
			Type:        EventGameStarted,
			Players:     summaries,
			CurrentTurn: r.CurrentTurn,
			Cards:       p.Hand,
		})
	}
	r.journal("game_start", uuid.Nil, map[string]interface{}{"players": len(r.Players)})
	return nil
}

// PlayMove validates and applies a play by actorID. The combination is
// checked first, then the cards are resolved against the actor's hand by
// card ID; everything applied to room state comes from the resolved copies,
// so the client can never smuggle in values it does not hold.
func (r *Room) PlayMove(actorID uuid.UUID, submitted []deck.Card) error {
	if r.GameState != StatePlaying {
		return ErrNotPlaying
	}
	if r.Players[r.CurrentTurn].ID != actorID {
		return ErrNotYourTurn
	}
	if r.IsGameOver {
		return ErrGameOver
	}

	if Classify(submitted) == MoveInvalid {
		return ErrInvalidCombination
	}
	if r.LastMove != nil && !Beats(submitted, r.LastMove) {
		return ErrTooWeak
	}

	actor := r.Players[r.CurrentTurn]
	played, err := resolveFromHand(actor.Hand, submitted)
	if err != nil {
		return err
	}

	actor.Hand = removeCards(actor.Hand, played)
	r.LastMove = played
	r.LastPlayerID = actorID
	r.PassedPlayers = make(map[uuid.UUID]bool)
	r.journal("play", actorID, map[string]interface{}{"cards": len(played), "kind": Classify(played).String()})

	if len(actor.Hand) == 0 {
		r.IsGameOver = true
		results := r.Results()
		r.broadcast(GameOverMessage{
			Type:    EventGameOver,
			Winner:  actor.Name,
			Results: results,
		})
		r.journal("game_over", actorID, map[string]interface{}{"winner": actor.Name})
		if r.OnGameEnd != nil {
			r.OnGameEnd(actor.Name, results)
		}
		return nil
	}

	r.CurrentTurn = r.nextTurn()
	r.broadcastMovePlayed()
	return nil
}

// Pass records a fold by actorID and advances the turn. When rotation comes
// back around to the player holding the standing move, the round closes: the
// table clears and that player leads again.
func (r *Room) Pass(actorID uuid.UUID) error {
	if r.GameState != StatePlaying {
		return ErrNotPlaying
	}
	if r.Players[r.CurrentTurn].ID != actorID {
		return ErrNotYourTurn
	}
	if r.IsGameOver {
		return ErrGameOver
	}
	if r.LastMove == nil {
		return ErrCannotPassWhileLeading
	}

	r.PassedPlayers[actorID] = true
	next := r.nextTurn()
	if r.LastPlayerID != uuid.Nil && next == r.playerIndex(r.LastPlayerID) {
		r.LastMove = nil
		r.PassedPlayers = make(map[uuid.UUID]bool)
	}
	r.CurrentTurn = next
	r.journal("pass", actorID, nil)

	r.broadcastMovePlayed()
	return nil
}

// nextTurn scans forward circularly for the first player who has not passed
// this round and still holds cards. Falls back to the current index if a full
// circle finds nobody, which the round-close rules should prevent.
func (r *Room) nextTurn() int {
	next := r.CurrentTurn
	for i := 0; i < len(r.Players); i++ {
		next = (next + 1) % len(r.Players)
		p := r.Players[next]
		if !r.PassedPlayers[p.ID] && len(p.Hand) > 0 {
			return next
		}
	}
	return next
}

// Surrender ends the game immediately. The reported standings show zero cards
// for everyone except the surrendering player, whose true count is revealed;
// this mirrors the original product's display.
func (r *Room) Surrender(actorID uuid.UUID) error {
	if r.GameState != StatePlaying {
		return ErrNotPlaying
	}
	name := "Người chơi"
	if p := r.PlayerByID(actorID); p != nil {
		name = p.Name
	}

	r.IsGameOver = true
	r.GameState = StateWaiting

	results := make([]PlayerResult, 0, len(r.Players))
	for _, p := range r.Players {
		left := 0
		if p.ID == actorID {
			left = len(p.Hand)
		}
		results = append(results, PlayerResult{Name: p.Name, CardsLeft: left})
	}
	winner := fmt.Sprintf("Đối thủ (Do %s xin thua)", name)
	r.broadcast(GameOverMessage{
		Type:    EventGameOver,
		Winner:  winner,
		Results: results,
	})
	r.journal("surrender", actorID, nil)
	if r.OnGameEnd != nil {
		r.OnGameEnd(winner, results)
	}
	return nil
}

// Rematch returns the room to the waiting state without unseating anyone.
func (r *Room) Rematch() {
	r.GameState = StateWaiting
	r.IsGameOver = false
	r.LastMove = nil
	r.LastPlayerID = uuid.Nil
	r.PassedPlayers = make(map[uuid.UUID]bool)
	for _, p := range r.Players {
		p.Hand = nil
		p.Ready = false
	}
	r.broadcast(ReturnToWaitingMessage{
		Type: EventReturnToWaiting,
		Room: r.Snapshot(),
	})
	r.journal("rematch", uuid.Nil, nil)
}

// AddChat appends a chat line to the room history and returns it for relay.
func (r *Room) AddChat(actorID uuid.UUID, text string) ChatMessage {
	name := "Guest"
	if p := r.PlayerByID(actorID); p != nil {
		name = p.Name
	}
	msg := ChatMessage{
		Name: name,
		Text: text,
		Time: time.Now().Format("15:04:05"),
	}
	r.ChatHistory = append(r.ChatHistory, msg)
	return msg
}

// Summaries returns the public per-player view (name + card count).
func (r *Room) Summaries() []PlayerSummary {
	out := make([]PlayerSummary, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, PlayerSummary{ID: p.ID, Name: p.Name, CardCount: len(p.Hand)})
	}
	return out
}

// Results returns the final standings with true remaining counts.
func (r *Room) Results() []PlayerResult {
	out := make([]PlayerResult, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, PlayerResult{Name: p.Name, CardsLeft: len(p.Hand)})
	}
	return out
}

// Snapshot builds the member-facing room view. Hands stay private.
func (r *Room) Snapshot() RoomSnapshot {
	seats := make([]SeatInfo, 0, len(r.Players))
	for _, p := range r.Players {
		seats = append(seats, SeatInfo{ID: p.ID, Name: p.Name, Ready: p.Ready})
	}
	return RoomSnapshot{
		ID:         r.ID,
		Name:       r.Name,
		Bet:        r.Bet,
		Type:       r.Type,
		GameState:  r.GameState,
		Players:    seats,
		IsGameOver: r.IsGameOver,
	}
}

// Listing builds the lobby view of this room.
func (r *Room) Listing() RoomListing {
	name := r.Name
	if len(r.Players) > 0 {
		name = fmt.Sprintf("Bàn của %s", r.Players[0].Name)
	}
	return RoomListing{
		ID:          r.ID,
		Name:        name,
		Bet:         r.Bet,
		PlayerCount: len(r.Players),
		MaxPlayers:  MaxPlayers,
		Type:        r.Type,
		State:       r.GameState,
	}
}

func (r *Room) broadcastMovePlayed() {
	r.broadcast(MovePlayedMessage{
		Type:         EventMovePlayed,
		LastMove:     r.LastMove,
		CurrentTurn:  r.CurrentTurn,
		LastPlayerID: r.LastPlayerID,
		Players:      r.Summaries(),
	})
}

func (r *Room) broadcast(msg interface{}) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(msg)
	}
}

func (r *Room) broadcastToPlayer(playerID uuid.UUID, msg interface{}) {
	if r.BroadcastToPlayerFn != nil {
		r.BroadcastToPlayerFn(playerID, msg)
	}
}

func (r *Room) journal(action string, actorID uuid.UUID, payload map[string]interface{}) {
	if r.Journal != nil {
		r.Journal(action, actorID, payload)
	}
}

// resolveFromHand maps each submitted card back to the card actually held,
// matching by ID. Fails with ErrCardNotOwned on any miss or duplicate.
func resolveFromHand(hand []deck.Card, submitted []deck.Card) ([]deck.Card, error) {
	if len(submitted) == 0 {
		return nil, ErrInvalidCombination
	}
	byID := make(map[uuid.UUID]deck.Card, len(hand))
	for _, c := range hand {
		byID[c.ID] = c
	}
	out := make([]deck.Card, 0, len(submitted))
	for _, s := range submitted {
		c, ok := byID[s.ID]
		if !ok {
			return nil, ErrCardNotOwned
		}
		delete(byID, s.ID)
		out = append(out, c)
	}
	deck.Sort(out)
	return out, nil
}

func removeCards(hand []deck.Card, played []deck.Card) []deck.Card {
	drop := make(map[uuid.UUID]bool, len(played))
	for _, c := range played {
		drop[c.ID] = true
	}
	// Fresh slice: snapshots of the old hand may still be queued for delivery.
	kept := make([]deck.Card, 0, len(hand)-len(played))
	for _, c := range hand {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	return kept
}
