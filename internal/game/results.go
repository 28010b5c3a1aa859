package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
)

// =============================================================================
// MATCH RESULTS
// =============================================================================

const recordTimeout = 5 * time.Second

// MemoryRecorder keeps the most recent matches in process. It is the recorder used when no
// database is configured.
type MemoryRecorder struct {
	mu      sync.Mutex
	limit   int
	matches []internal.MatchResult
}

func NewMemoryRecorder(limit int) *MemoryRecorder {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryRecorder{limit: limit}
}

func (m *MemoryRecorder) RecordMatch(_ context.Context, result internal.MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = append(m.matches, result)
	if over := len(m.matches) - m.limit; over > 0 {
		m.matches = append([]internal.MatchResult(nil), m.matches[over:]...)
	}
	return nil
}

// RecentMatches returns up to limit matches, newest first.
func (m *MemoryRecorder) RecentMatches(_ context.Context, limit int) ([]internal.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.matches) {
		limit = len(m.matches)
	}
	out := make([]internal.MatchResult, 0, limit)
	for i := len(m.matches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.matches[i])
	}
	return out, nil
}

// buildMatchResult snapshots a finished round. Caller holds room.Mu.
func buildMatchResult(room *internal.Room, endedAt time.Time) internal.MatchResult {
	round := room.Round
	result := internal.MatchResult{
		Id:        uuid.NewString(),
		RoomId:    room.Id,
		Winner:    round.Winner,
		Reason:    round.Reason,
		Duration:  round.Elapsed,
		StartedAt: round.StartedAt,
		EndedAt:   endedAt,
		RunnerIds: []string{},
	}
	for _, p := range room.OrderedPlayers() {
		switch p.Role {
		case internal.RoleChaser:
			result.ChaserId = p.Id
		case internal.RoleRunner:
			result.RunnerIds = append(result.RunnerIds, p.Id)
			if p.IsFrozen() {
				result.Frozen++
			}
		}
	}
	return result
}

// recordMatch hands the result to the recorder off the room lock.
func (c *Coordinator) recordMatch(room *internal.Room) {
	result := buildMatchResult(room, c.clock())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := c.recorder.RecordMatch(ctx, result); err != nil {
			log.Error().Err(err).Str("room", result.RoomId).Msg("[recordMatch] failed to store match")
			return
		}
		log.Debug().Str("room", result.RoomId).Msg("[recordMatch] match stored")
	}()
}
