// internal/history/history.go
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/dnghia/tienlen/internal/game"
)

// Store archives completed matches in Postgres. Live room state is never
// persisted; only final outcomes land here, so losing the database costs
// nothing but the record books. A nil *Store is a valid no-op.
type Store struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// Connect opens a pgx pool against the given URL and pings it.
func Connect(ctx context.Context, databaseURL string, logger *logrus.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// RecordMatch upserts the outcome of one finished game: the winner label and
// each player's remaining card count.
func (s *Store) RecordMatch(ctx context.Context, roomID, winner string, results []game.PlayerResult) error {
	if s == nil {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		insertMatch := `
			INSERT INTO matches (room_id, winner, finished_at)
			VALUES ($1, $2, now())
			RETURNING id
		`
		var matchID int64
		if err := tx.QueryRow(ctx, insertMatch, roomID, winner).Scan(&matchID); err != nil {
			return err
		}
		insertResult := `
			INSERT INTO match_results (match_id, player_name, cards_left)
			VALUES ($1, $2, $3)
		`
		for _, res := range results {
			if _, err := tx.Exec(ctx, insertResult, matchID, res.Name, res.CardsLeft); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record match for room %s: %w", roomID, err)
	}
	return nil
}

// RecordMatchAsync archives a match on a background goroutine; failures are
// logged but never reach gameplay.
func (s *Store) RecordMatchAsync(roomID, winner string, results []game.PlayerResult) {
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.RecordMatch(ctx, roomID, winner, results); err != nil {
			s.logger.Warnf("history: %v", err)
		}
	}()
}

// Close releases the pool.
func (s *Store) Close() {
	if s != nil {
		s.pool.Close()
	}
}
