package services_test

import (
	"sync"
	"time"

	"eternals-backend/application/ports"
)

// countingMetrics records the calls the services make
type countingMetrics struct {
	ports.NoopMetrics

	mu          sync.Mutex
	cartOps     map[string]int
	activeCarts int
	expired     int
	ticks       int
	auth        map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{cartOps: map[string]int{}, auth: map[string]int{}}
}

func (m *countingMetrics) CartOperation(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cartOps[op]++
}

func (m *countingMetrics) SetActiveCarts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeCarts = n
}

func (m *countingMetrics) CartExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired++
}

func (m *countingMetrics) FieldTick(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
}

func (m *countingMetrics) AuthAttempt(method, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth[method+":"+outcome]++
}

func (m *countingMetrics) tickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}
