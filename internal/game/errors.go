// internal/game/errors.go
package game

import "errors"

// Gameplay failures are sentinel errors so the protocol layer can map each
// to a targeted error event without tearing down the connection.
var (
	ErrRoomFull               = errors.New("room is full")
	ErrNotInRoom              = errors.New("player is not in this room")
	ErrNotYourTurn            = errors.New("not your turn")
	ErrGameOver               = errors.New("game is already over")
	ErrNotPlaying             = errors.New("no game in progress")
	ErrInvalidCombination     = errors.New("invalid card combination")
	ErrTooWeak                = errors.New("combination does not beat the table")
	ErrCardNotOwned           = errors.New("played card is not in hand")
	ErrCannotPassWhileLeading = errors.New("cannot pass while leading the round")
	ErrNotEnoughPlayers       = errors.New("need at least 2 players to start")
	ErrNotAllReady            = errors.New("not all players are ready")
)
