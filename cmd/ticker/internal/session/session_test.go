package session_test

import (
	"math"
	"testing"
	"time"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/session"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

const baseMicros = int64(1_700_000_000_000_000)

func fixedStep(delta float64) session.StepFunc {
	return func(string, float64, time.Duration) float64 { return delta }
}

func seedSession(t *testing.T) *session.Session {
	t.Helper()
	store := testStore(t, nil)
	return store.GetOrCreate(t.Context(), "alice", "inst-1", baseMicros)
}

func findStock(t *testing.T, stocks []models.Instrument, symbol string) models.Instrument {
	t.Helper()
	for _, s := range stocks {
		if s.Symbol == symbol {
			return s
		}
	}
	t.Fatalf("Symbol %s not found", symbol)
	return models.Instrument{}
}

func TestTick_FixedPerturbation(t *testing.T) {
	s := seedSession(t)

	applied, skipped := s.Tick(fixedStep(2.00), time.Second, baseMicros+1)
	if len(skipped) != 0 {
		t.Fatalf("Unexpected skipped instruments: %v", skipped)
	}
	if len(applied) != 3 {
		t.Fatalf("Expected 3 applied moves, got %d", len(applied))
	}

	stocks, _ := s.Snapshot()
	bnox := findStock(t, stocks, "BNOX")

	if bnox.PreviousPrice != 185.75 {
		t.Errorf("Expected previousPrice 185.75, got %f", bnox.PreviousPrice)
	}
	if bnox.CurrentPrice != 187.75 {
		t.Errorf("Expected currentPrice 187.75, got %f", bnox.CurrentPrice)
	}
	if math.Abs(bnox.PercentageChange-1.077) > 0.001 {
		t.Errorf("Expected percentageChange ~1.077, got %f", bnox.PercentageChange)
	}
	if len(bnox.PriceHistory) != 2 {
		t.Errorf("Expected history length 2 (seed + tick), got %d", len(bnox.PriceHistory))
	}
}

func TestTick_PausedMutatesNothing(t *testing.T) {
	s := seedSession(t)
	s.Pause(baseMicros + 1)

	before, _ := s.Snapshot()
	for i := 0; i < 5; i++ {
		applied, _ := s.Tick(fixedStep(2.00), time.Second, baseMicros+int64(2+i))
		if applied != nil {
			t.Fatal("Paused tick must not apply any moves")
		}
	}
	after, _ := s.Snapshot()

	for i := range before {
		b, a := before[i], after[i]
		if a.CurrentPrice != b.CurrentPrice || a.PreviousPrice != b.PreviousPrice {
			t.Errorf("%s: prices changed while paused", a.Symbol)
		}
		if a.LastUpdated != b.LastUpdated {
			t.Errorf("%s: lastUpdated changed while paused", a.Symbol)
		}
		if len(a.PriceHistory) != len(b.PriceHistory) {
			t.Errorf("%s: history grew while paused", a.Symbol)
		}
	}
}

func TestTick_HistoryCapAndFloor(t *testing.T) {
	s := seedSession(t)

	// Large negative steps also prove the zero floor.
	for i := 0; i < models.MaxHistory+50; i++ {
		s.Tick(fixedStep(-50.0), time.Second, baseMicros+int64(i+1))
	}

	stocks, _ := s.Snapshot()
	for _, stock := range stocks {
		if stock.CurrentPrice < 0 {
			t.Errorf("%s: price went negative: %f", stock.Symbol, stock.CurrentPrice)
		}
		if len(stock.PriceHistory) > models.MaxHistory {
			t.Errorf("%s: history exceeded cap: %d", stock.Symbol, len(stock.PriceHistory))
		}
	}
}

func TestTick_CorruptPerturbationSkipsInstrument(t *testing.T) {
	s := seedSession(t)

	step := func(symbol string, _ float64, _ time.Duration) float64 {
		if symbol == "BNOX" {
			return math.NaN()
		}
		return 1.0
	}

	applied, skipped := s.Tick(step, time.Second, baseMicros+1)
	if len(skipped) != 1 || skipped[0] != "BNOX" {
		t.Fatalf("Expected BNOX skipped, got %v", skipped)
	}
	if len(applied) != 2 {
		t.Errorf("Expected other instruments to still tick, got %d", len(applied))
	}

	stocks, _ := s.Snapshot()
	bnox := findStock(t, stocks, "BNOX")
	if bnox.CurrentPrice != 185.75 {
		t.Errorf("Skipped instrument must be untouched, got %f", bnox.CurrentPrice)
	}
}

func TestApplyControls_AtomicRejection(t *testing.T) {
	s := seedSession(t)

	goodInterval := 5000
	badCurrency := "XYZ"
	_, err := s.ApplyControls(models.ControlsPatch{
		UpdateIntervalMs: &goodInterval,
		SelectedCurrency: &badCurrency,
	}, baseMicros+1)
	if err == nil {
		t.Fatal("Expected patch rejection")
	}

	// The valid field must not have been applied either.
	if got := s.Controls().UpdateIntervalMs; got == goodInterval {
		t.Error("Rejected patch partially applied")
	}
}

func TestApplyControls_Boundaries(t *testing.T) {
	s := seedSession(t)

	tooFast := 999
	if _, err := s.ApplyControls(models.ControlsPatch{UpdateIntervalMs: &tooFast}, baseMicros+1); err == nil {
		t.Error("999ms interval should be rejected")
	}

	floor := 1000
	eur := "EUR"
	controls, err := s.ApplyControls(models.ControlsPatch{UpdateIntervalMs: &floor, SelectedCurrency: &eur}, baseMicros+2)
	if err != nil {
		t.Fatalf("Valid patch rejected: %v", err)
	}
	if controls.UpdateIntervalMs != 1000 || controls.SelectedCurrency != "EUR" {
		t.Errorf("Patch not applied: %+v", controls)
	}
	if controls.LastUpdated != baseMicros+2 {
		t.Errorf("lastUpdated not bumped: %d", controls.LastUpdated)
	}
}

func TestEmergencyStop_AbsorbingAndIdempotent(t *testing.T) {
	s := seedSession(t)

	c := s.EmergencyStop(baseMicros + 1)
	if !c.IsEmergencyStopped || !c.IsPaused {
		t.Fatal("Stop must force both flags")
	}

	// Plain resume must not clear the stop.
	c = s.Resume(baseMicros + 2)
	if !c.IsEmergencyStopped {
		t.Error("Resume cleared emergency stop")
	}
	if applied, _ := s.Tick(fixedStep(1.0), time.Second, baseMicros+3); applied != nil {
		t.Error("Stopped session must not tick")
	}

	// Idempotent.
	c = s.EmergencyStop(baseMicros + 4)
	if !c.IsEmergencyStopped || !c.IsPaused {
		t.Error("Repeated stop changed state")
	}

	c = s.EmergencyResume(baseMicros + 5)
	if c.IsEmergencyStopped || c.IsPaused {
		t.Error("EmergencyResume must clear both flags")
	}
	if applied, _ := s.Tick(fixedStep(1.0), time.Second, baseMicros+6); len(applied) == 0 {
		t.Error("Session should tick after emergency resume")
	}
}

func TestUpsertInstrument_SanitizesAndValidates(t *testing.T) {
	s := seedSession(t)

	stock, err := s.UpsertInstrument("  qntm ", "Quantum Industries", 42.5, baseMicros+1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stock.Symbol != "QNTM" {
		t.Errorf("Expected sanitized symbol QNTM, got %s", stock.Symbol)
	}
	if stock.InitialPrice != 42.5 || stock.PreviousPrice != 42.5 {
		t.Errorf("New instrument prices not seeded: %+v", stock)
	}

	if _, err := s.UpsertInstrument("bad sym!", "x", 1, baseMicros+2); err == nil {
		t.Error("Invalid symbol accepted")
	}
	if _, err := s.UpsertInstrument("OK", "valid", -1, baseMicros+3); err == nil {
		t.Error("Negative price accepted")
	}

	// Update path rolls current into previous.
	updated, err := s.UpsertInstrument("QNTM", "Quantum Industries", 50, baseMicros+4)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.PreviousPrice != 42.5 || updated.CurrentPrice != 50 {
		t.Errorf("Update did not roll prices: %+v", updated)
	}
}
