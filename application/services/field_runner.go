package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/domain/particles"

	"go.uber.org/zap"
)

// DefaultTickInterval is the field's fixed simulation step
const DefaultTickInterval = 50 * time.Millisecond

var ErrRunnerStarted = errors.New("field runner already started")

// FieldRunnerConfig configures a FieldRunner
type FieldRunnerConfig struct {
	Params   particles.Params
	Viewport particles.Viewport
	Interval time.Duration

	// Rand seeds the field; a time-seeded source is used when nil
	Rand particles.RandomSource
}

// FieldRunner owns one particle field and drives it on a fixed tick. Input
// callbacks only record the latest pointer and viewport readings; the tick
// goroutine applies them, commits the new state and hands the frame to
// subscribers. Subscribers never see a partially updated field.
type FieldRunner struct {
	mu       sync.Mutex
	field    *particles.Field
	pointer  particles.Pointer
	viewport particles.Viewport
	latest   particles.Frame

	subsMu  sync.RWMutex
	subs    map[uint64]func(particles.Frame)
	nextSub uint64

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	metrics ports.Metrics
	logger  *zap.Logger
}

// NewFieldRunner creates a runner with a freshly seeded field. It does not
// tick until Start is called.
func NewFieldRunner(cfg FieldRunnerConfig, metrics ports.Metrics, logger *zap.Logger) *FieldRunner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickInterval
	}
	if cfg.Rand == nil {
		now := uint64(time.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(now, now>>1|1))
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}

	field := particles.NewField(cfg.Params, cfg.Viewport, cfg.Rand)
	return &FieldRunner{
		field:    field,
		viewport: cfg.Viewport,
		latest:   field.Snapshot(),
		subs:     make(map[uint64]func(particles.Frame)),
		interval: cfg.Interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start launches the tick loop. It stops when ctx is cancelled or Stop is
// called.
func (r *FieldRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return ErrRunnerStarted
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)
	return nil
}

// Stop cancels the tick loop and waits for it to exit. Safe to call more
// than once and before Start.
func (r *FieldRunner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *FieldRunner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Step()
		}
	}
}

// Step advances the field one tick and delivers the committed frame
func (r *FieldRunner) Step() particles.Frame {
	start := time.Now()

	r.mu.Lock()
	frame := r.field.Tick(r.pointer, r.viewport)
	r.latest = frame
	r.mu.Unlock()

	r.metrics.FieldTick(time.Since(start))
	r.publish(frame)
	return frame
}

func (r *FieldRunner) publish(frame particles.Frame) {
	r.subsMu.RLock()
	targets := make([]func(particles.Frame), 0, len(r.subs))
	for _, fn := range r.subs {
		targets = append(targets, fn)
	}
	r.subsMu.RUnlock()

	for _, fn := range targets {
		fn(frame)
	}
}

// Subscribe registers fn to receive every committed frame on the tick
// goroutine; fn must not block. The returned dispose func unregisters it.
func (r *FieldRunner) Subscribe(fn func(particles.Frame)) (dispose func()) {
	r.subsMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subsMu.Lock()
			delete(r.subs, id)
			r.subsMu.Unlock()
		})
	}
}

// Subscribers returns the number of registered subscribers
func (r *FieldRunner) Subscribers() int {
	r.subsMu.RLock()
	defer r.subsMu.RUnlock()
	return len(r.subs)
}

// Latest returns the last committed frame
func (r *FieldRunner) Latest() particles.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// MovePointer records the pointer position for the next tick
func (r *FieldRunner) MovePointer(x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointer = particles.Pointer{Position: particles.Vec2{X: x, Y: y}, Present: true}
}

// PressPointer records the position and grabs the nearest node in reach
func (r *FieldRunner) PressPointer(x, y float64) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := particles.Vec2{X: x, Y: y}
	r.pointer = particles.Pointer{Position: at, Present: true}
	return r.field.Press(at)
}

// ReleasePointer lets go of the held node, if any
func (r *FieldRunner) ReleasePointer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.field.Release()
}

// LeavePointer marks the pointer absent. A held node is released because
// the matching pointer-up will never arrive.
func (r *FieldRunner) LeavePointer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointer.Present = false
	r.field.Release()
}

// Resize records new viewport bounds; non-positive sizes are ignored
func (r *FieldRunner) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport = particles.Viewport{Width: width, Height: height}
}
