package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// PlanningInterval is how many years pass between planning sessions.
const PlanningInterval = 5

// Runner drives a State forward one year per interval. All access to the
// state while a runner is live goes through Do or View.
type Runner struct {
	Speed    float64       // 1.0 = one year per Interval, 0 = paused
	Interval time.Duration // wall time per simulated year at speed 1
	MaxYears int           // stop after this many years; 0 runs until game over

	// Callbacks, run with the state locked.
	OnYear     func(s *State, r Report)
	OnPlanning func(s *State)
	OnGameOver func(s *State)

	mu    sync.Mutex
	state *State
	rng   *rand.Rand
	years int
}

// NewRunner creates a runner over s drawing randomness from a source
// seeded with seed.
func NewRunner(s *State, seed int64) *Runner {
	return &Runner{
		Speed:    1.0,
		Interval: time.Second,
		state:    s,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run steps the simulation until the context is cancelled, the game ends
// or MaxYears have passed.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("simulation runner started", "year", r.View(func(s *State) any { return s.Year }), "speed", r.CurrentSpeed())
	defer slog.Info("simulation runner stopped", "years", r.years)

	for {
		if ctx.Err() != nil {
			return
		}
		speed := r.CurrentSpeed()
		if speed <= 0 {
			if !sleep(ctx, 100*time.Millisecond) {
				return
			}
			continue
		}

		start := time.Now()
		if done := r.StepOnce(); done {
			return
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / speed)
		if elapsed < target && !sleep(ctx, target-elapsed) {
			return
		}
	}
}

// StepOnce simulates one year and runs the callbacks. It reports whether
// the runner is finished.
func (r *Runner) StepOnce() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	if s.GameOver {
		return true
	}
	rep := s.Step(r.rng)
	r.years++
	if r.OnYear != nil {
		r.OnYear(s, rep)
	}
	if s.GameOver {
		slog.Info("game over", "year", s.Year, "outlook", s.Outlook())
		if r.OnGameOver != nil {
			r.OnGameOver(s)
		}
		return true
	}
	if s.IsPlanningYear() && r.OnPlanning != nil {
		r.OnPlanning(s)
	}
	return r.MaxYears > 0 && r.years >= r.MaxYears
}

// Do runs fn with exclusive access to the state.
func (r *Runner) Do(fn func(s *State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.state)
}

// View runs fn with the state locked and returns its result.
func (r *Runner) View(fn func(s *State) any) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.state)
}

// SetSpeed changes the pace of a running simulation. Zero pauses it.
func (r *Runner) SetSpeed(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Speed = v
}

// CurrentSpeed reads the pace under the lock.
func (r *Runner) CurrentSpeed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Speed
}

// Years is how many years this runner has stepped.
func (r *Runner) Years() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.years
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
