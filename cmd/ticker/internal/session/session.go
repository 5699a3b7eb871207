package session

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/validate"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// StepFunc produces a price perturbation for one instrument. Zero-mean
// random walks in production, fixed values in tests.
type StepFunc func(symbol string, current float64, elapsed time.Duration) float64

// TickResult is one applied price move, consumed by the feed publisher.
type TickResult struct {
	Symbol string
	Price  float64
}

// Session is the isolated state bucket for one (userId, instanceId) pair.
// All mutation goes through methods holding mu, so a scheduler tick can
// never interleave with a control update on the same session.
type Session struct {
	key string

	mu          sync.Mutex
	controls    models.Controls
	instruments map[string]*models.Instrument
}

func newSession(key string, controls models.Controls, seed []models.Instrument, now int64) *Session {
	s := &Session{
		key:         key,
		controls:    controls,
		instruments: make(map[string]*models.Instrument, len(seed)),
	}
	s.controls.LastUpdated = now
	for _, inst := range seed {
		c := inst.Clone()
		if c.LastUpdated == 0 {
			c.LastUpdated = now
		}
		if len(c.PriceHistory) == 0 {
			c.PriceHistory = []models.PricePoint{{Timestamp: c.LastUpdated, Price: c.CurrentPrice}}
		}
		s.instruments[c.Symbol] = &c
	}
	return s
}

func restoreSession(snap models.SessionSnapshot) *Session {
	s := &Session{
		key:         snap.Key,
		controls:    snap.Controls,
		instruments: make(map[string]*models.Instrument, len(snap.Instruments)),
	}
	for _, inst := range snap.Instruments {
		c := inst.Clone()
		s.instruments[c.Symbol] = &c
	}
	return s
}

func (s *Session) Key() string { return s.key }

// Snapshot returns deep copies sorted by symbol, safe to use outside the lock.
func (s *Session) Snapshot() ([]models.Instrument, models.Controls) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Instrument, 0, len(s.instruments))
	for _, inst := range s.instruments {
		out = append(out, inst.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, s.controls
}

func (s *Session) Controls() models.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// Interval is read fresh by the scheduler on every cycle so interval changes
// take effect on the next tick.
func (s *Session) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.controls.UpdateIntervalMs) * time.Millisecond
}

// ApplyControls validates every field present in the patch and applies it
// atomically; an invalid field rejects the whole patch with nothing changed.
func (s *Session) ApplyControls(patch models.ControlsPatch, now int64) (models.Controls, error) {
	if err := validate.ControlsPatch(patch); err != nil {
		return models.Controls{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.IsPaused != nil {
		s.controls.IsPaused = *patch.IsPaused
	}
	if patch.IsEmergencyStopped != nil {
		s.controls.IsEmergencyStopped = *patch.IsEmergencyStopped
		if s.controls.IsEmergencyStopped {
			s.controls.IsPaused = true
		}
	}
	if patch.UpdateIntervalMs != nil {
		s.controls.UpdateIntervalMs = *patch.UpdateIntervalMs
	}
	if patch.SelectedCurrency != nil {
		s.controls.SelectedCurrency = *patch.SelectedCurrency
	}
	s.controls.LastUpdated = now
	return s.controls, nil
}

func (s *Session) Pause(now int64) models.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.IsPaused = true
	s.controls.LastUpdated = now
	return s.controls
}

// Resume clears the pause flag. An emergency stop is absorbing: it keeps
// the simulation halted until EmergencyResume.
func (s *Session) Resume(now int64) models.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.IsPaused = false
	s.controls.LastUpdated = now
	return s.controls
}

// EmergencyStop forces the paused state as well. Idempotent.
func (s *Session) EmergencyStop(now int64) models.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.IsEmergencyStopped = true
	s.controls.IsPaused = true
	s.controls.LastUpdated = now
	return s.controls
}

func (s *Session) EmergencyResume(now int64) models.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.IsEmergencyStopped = false
	s.controls.IsPaused = false
	s.controls.LastUpdated = now
	return s.controls
}

// UpsertInstrument creates or manually reprices an instrument. Input is
// sanitized then validated before any state changes.
func (s *Session) UpsertInstrument(symbol, name string, price float64, now int64) (models.Instrument, error) {
	symbol = validate.SanitizeSymbol(symbol)
	name = validate.SanitizeName(name)

	if err := validate.Symbol(symbol); err != nil {
		return models.Instrument{}, err
	}
	if err := validate.Name(name); err != nil {
		return models.Instrument{}, err
	}
	if err := validate.Price(price); err != nil {
		return models.Instrument{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if inst, ok := s.instruments[symbol]; ok {
		inst.Name = name
		inst.RecordPrice(price, now)
		return inst.Clone(), nil
	}

	inst := &models.Instrument{
		Symbol:        symbol,
		Name:          name,
		CurrentPrice:  price,
		PreviousPrice: price,
		InitialPrice:  price,
		PriceHistory:  []models.PricePoint{{Timestamp: now, Price: price}},
		LastUpdated:   now,
	}
	s.instruments[symbol] = inst
	return inst.Clone(), nil
}

// Tick advances every instrument by one simulation step. While paused or
// emergency-stopped it mutates nothing at all: no history entries, no
// lastUpdated bumps. A step returning NaN/Inf skips that instrument only;
// the returned slice carries its symbol so the caller can log it.
func (s *Session) Tick(step StepFunc, elapsed time.Duration, now int64) (applied []TickResult, skipped []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.controls.Active() {
		return nil, nil
	}

	for _, inst := range s.instruments {
		delta := step(inst.Symbol, inst.CurrentPrice, elapsed)
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			skipped = append(skipped, inst.Symbol)
			continue
		}
		price := inst.CurrentPrice + delta
		if price < 0 {
			price = 0
		}
		inst.RecordPrice(price, now)
		applied = append(applied, TickResult{Symbol: inst.Symbol, Price: price})
	}
	return applied, skipped
}
