package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	ErrUnexpected     = errors.New("unexpected database error")
	ErrDuplicateMatch = errors.New("match already recorded")
)

// Service stores finished matches in PostgreSQL.
type Service struct {
	pool *pgxpool.Pool
}

// New applies pending migrations and opens the connection pool.
func New(ctx context.Context, connString string) (*Service, error) {
	if err := Migrate(connString); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: open pool: %w", ErrUnexpected, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrUnexpected, err)
	}
	return &Service{pool: pool}, nil
}

func Migrate(connString string) error {
	migrationDB, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer migrationDB.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(migrationDB, "migrations"); err != nil {
		return fmt.Errorf("run up migrations: %w", err)
	}

	log.Info().Msg("[Migrate] migrations applied")
	return nil
}

func (s *Service) RecordMatch(ctx context.Context, m internal.MatchResult) error {
	runners := m.RunnerIds
	if runners == nil {
		runners = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (id, room_code, winner, reason, chaser_id, runner_ids, frozen_count, duration_ms, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.Id, m.RoomId, string(m.Winner), string(m.Reason), m.ChaserId, runners, m.Frozen,
		m.Duration.Milliseconds(), m.StartedAt, m.EndedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique_violation
			return ErrDuplicateMatch
		}
		return wrapErr(err)
	}
	return nil
}

// RecentMatches returns up to limit matches, newest first.
func (s *Service) RecentMatches(ctx context.Context, limit int) ([]internal.MatchResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, room_code, winner, reason, chaser_id, runner_ids, frozen_count, duration_ms, started_at, ended_at
		FROM matches
		ORDER BY ended_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	matches := make([]internal.MatchResult, 0, limit)
	for rows.Next() {
		var (
			m              internal.MatchResult
			winner, reason string
			durationMs     int64
		)
		if err := rows.Scan(&m.Id, &m.RoomId, &winner, &reason, &m.ChaserId, &m.RunnerIds, &m.Frozen,
			&durationMs, &m.StartedAt, &m.EndedAt); err != nil {
			return nil, wrapErr(err)
		}
		m.Winner = internal.Role(winner)
		m.Reason = internal.EndReason(reason)
		m.Duration = time.Duration(durationMs) * time.Millisecond
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return matches, nil
}

// Health returns a status map in the shape served on /health.
func (s *Service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("[Health] database ping failed")
		return stats
	}

	poolStats := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["total_connections"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_connections"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_connections"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["acquire_count"] = strconv.FormatInt(poolStats.AcquireCount(), 10)
	return stats
}

func (s *Service) Close() {
	log.Info().Msg("[Close] closing database pool")
	s.pool.Close()
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnexpected, err)
}
