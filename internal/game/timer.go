package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

// StartPhaseTimer starts the room's tick loop. Caller holds room.Mu; the loop takes the lock
// itself on every tick, so it blocks until the caller releases it.
func (c *Coordinator) StartPhaseTimer(room *internal.Room) {
	CancelPhaseTimer(room)

	interval := c.settings.TickInterval()
	ctx, cancel := context.WithCancel(context.Background())
	room.Timer = &internal.GameTimer{
		StartTime: c.clock(),
		Interval:  interval,
		IsActive:  true,
		Context:   ctx,
		Cancel:    cancel,
	}
	ticks, stop := c.tickers.Create(interval)

	log.Debug().Str("room", room.Id).Dur("interval", interval).Msg("[StartPhaseTimer] tick loop starting")

	go func() {
		defer stop()
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("room", room.Id).
					Str("panic", fmt.Sprint(r)).
					Msg("[StartPhaseTimer] tick panicked, tearing room down")
				c.CleanupRoom(room)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				log.Debug().Str("room", room.Id).Msg("[StartPhaseTimer] tick loop stopped")
				return
			case <-ticks:
				c.tick(ctx, room, interval)
			}
		}
	}()
}

func (c *Coordinator) tick(ctx context.Context, room *internal.Room, dt time.Duration) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	// A tick that raced with cancellation must not touch the next round.
	if ctx.Err() != nil || room.Closed {
		return
	}
	c.advance(room, dt)
}

// CancelPhaseTimer stops the tick loop. Caller holds room.Mu.
func CancelPhaseTimer(room *internal.Room) {
	if room == nil || room.Timer == nil || !room.Timer.IsActive {
		return
	}
	if room.Timer.Cancel != nil {
		room.Timer.Cancel()
	}
	room.Timer.IsActive = false
	log.Debug().Str("room", room.Id).Msg("[CancelPhaseTimer] timer cancelled")
}

// broadcastTimerUpdate sends timerUpdate each time the remaining whole seconds change.
// Caller holds room.Mu.
func broadcastTimerUpdate(room *internal.Room) {
	round := room.Round
	if round == nil || round.Ended {
		return
	}

	seconds := int64((round.TimeRemaining + time.Second - 1) / time.Second)
	if seconds == round.LastAnnounced {
		return
	}
	round.LastAnnounced = seconds

	SafeBroadcastToRoom(room, newMessage("timerUpdate", internal.TimerUpdateData{
		TimeRemaining: seconds,
	}))
}
