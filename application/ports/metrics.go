package ports

import "time"

// Metrics is the slice of instrumentation the application layer reports to
type Metrics interface {
	CartOperation(operation string)
	SetActiveCarts(n int)
	CartExpired()

	FieldTick(duration time.Duration)
	FieldConnectionOpened()
	FieldConnectionClosed()
	FrameDropped()

	AuthAttempt(method, outcome string)
	SetBreakerState(name string, state float64)
}

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) CartOperation(string) {}

func (NoopMetrics) SetActiveCarts(int) {}

func (NoopMetrics) CartExpired() {}

func (NoopMetrics) FieldTick(time.Duration) {}

func (NoopMetrics) FieldConnectionOpened() {}

func (NoopMetrics) FieldConnectionClosed() {}

func (NoopMetrics) FrameDropped() {}

func (NoopMetrics) AuthAttempt(string, string) {}

func (NoopMetrics) SetBreakerState(string, float64) {}
