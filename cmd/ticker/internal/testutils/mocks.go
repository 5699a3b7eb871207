package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/repository"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// FixedClock always returns the same instant; Advance moves it.
type FixedClock struct {
	Mu  sync.Mutex
	Cur time.Time
}

func NewFixedClock(at time.Time) *FixedClock { return &FixedClock{Cur: at} }

func (c *FixedClock) Now() time.Time {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return c.Cur
}

func (c *FixedClock) Advance(d time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Cur = c.Cur.Add(d)
}

// FixedRand replays a canned sequence of values.
type FixedRand struct {
	Values []float64
	Index  int
	Mu     sync.Mutex
}

func (r *FixedRand) Float64() float64 {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if len(r.Values) == 0 {
		return 0.5
	}
	v := r.Values[r.Index%len(r.Values)]
	r.Index++
	return v
}

// MockArchiver simulates the Redis session archive
type MockArchiver struct {
	Mu        sync.Mutex
	Snapshots map[string]models.SessionSnapshot
	SaveCount int
	FailSaves bool
}

func NewMockArchiver() *MockArchiver {
	return &MockArchiver{Snapshots: make(map[string]models.SessionSnapshot)}
}

func (m *MockArchiver) Save(_ context.Context, snap models.SessionSnapshot) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.SaveCount++
	if m.FailSaves {
		return errors.New("archive unavailable")
	}
	m.Snapshots[snap.Key] = snap
	return nil
}

func (m *MockArchiver) Load(_ context.Context, key string) (models.SessionSnapshot, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	snap, ok := m.Snapshots[key]
	if !ok {
		return models.SessionSnapshot{}, repository.ErrNoSnapshot
	}
	return snap, nil
}

func (m *MockArchiver) Close() error { return nil }

// MockKafkaWriter records written messages
type MockKafkaWriter struct {
	Mu       sync.Mutex
	Messages []kafka.Message
	Closed   bool
}

func (m *MockKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Closed {
		return errors.New("writer closed")
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}
