package merge_test

import (
	"reflect"
	"testing"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/watcher/internal/merge"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

func inst(symbol string, price float64, updated int64) models.Instrument {
	return models.Instrument{
		Symbol:       symbol,
		Name:         symbol + " Corp",
		CurrentPrice: price,
		LastUpdated:  updated,
	}
}

func TestApply_RemoteOnlyInserts(t *testing.T) {
	ws := merge.NewWatchState()
	ws.Apply(merge.Snapshot{Stocks: []models.Instrument{inst("BNOX", 185.75, 10)}})

	got, ok := ws.Instruments["BNOX"]
	if !ok || got.CurrentPrice != 185.75 {
		t.Fatalf("Server-originated addition not inserted: %+v", got)
	}
}

func TestApply_LocalOnlyRetained(t *testing.T) {
	ws := merge.NewWatchState()
	ws.PutInstrument(inst("PEND", 5, 0), 10)

	ws.Apply(merge.Snapshot{Stocks: []models.Instrument{inst("BNOX", 185.75, 10)}})

	if _, ok := ws.Instruments["PEND"]; !ok {
		t.Fatal("Pending local addition was dropped by merge")
	}
}

func TestApply_RemoteNewerWinsWholeRecord(t *testing.T) {
	ws := merge.NewWatchState()
	local := inst("BNOX", 100, 0)
	local.PreviousPrice = 99
	local.PercentageChange = 1.0101
	ws.PutInstrument(local, 10)

	remote := inst("BNOX", 187.75, 20)
	remote.PreviousPrice = 185.75
	remote.PercentageChange = 1.077
	ws.Apply(merge.Snapshot{Stocks: []models.Instrument{remote}})

	got := ws.Instruments["BNOX"]
	// Whole-record adoption: current/previous/derived all come from remote.
	if got.CurrentPrice != 187.75 || got.PreviousPrice != 185.75 || got.PercentageChange != 1.077 {
		t.Errorf("Merge interleaved fields from two timestamps: %+v", got)
	}
}

func TestApply_LocalEditNeverClobberedByStaleSnapshot(t *testing.T) {
	ws := merge.NewWatchState()
	localEdit := inst("BNOX", 200, 0)
	ws.PutInstrument(localEdit, 100) // lastUpdated = T

	stale := inst("BNOX", 187.75, 99) // lastUpdated = T-1
	ws.Apply(merge.Snapshot{Stocks: []models.Instrument{stale}})

	got := ws.Instruments["BNOX"]
	if got.CurrentPrice != 200 || got.LastUpdated != 100 {
		t.Errorf("Uncommitted local edit clobbered: %+v", got)
	}
}

func TestApply_TieFavorsLocal(t *testing.T) {
	ws := merge.NewWatchState()
	local := inst("BNOX", 200, 0)
	ws.PutInstrument(local, 100)

	tied := inst("BNOX", 187.75, 100)
	ws.Apply(merge.Snapshot{Stocks: []models.Instrument{tied}})

	if ws.Instruments["BNOX"].CurrentPrice != 200 {
		t.Error("Equal timestamps must retain the local record")
	}
}

func TestApply_Idempotent(t *testing.T) {
	ws := merge.NewWatchState()
	ws.PutInstrument(inst("LOCL", 1, 0), 50)

	snap := merge.Snapshot{
		Stocks:   []models.Instrument{inst("BNOX", 187.75, 100), inst("GLTR", 96.10, 100)},
		Controls: models.Controls{SelectedCurrency: "EUR", LastUpdated: 100},
	}

	ws.Apply(snap)
	once := ws.Stocks()
	onceControls := ws.Controls

	ws.Apply(snap)
	twice := ws.Stocks()

	if !reflect.DeepEqual(once, twice) {
		t.Error("Merging the same snapshot twice diverged from merging once")
	}
	if ws.Controls != onceControls {
		t.Error("Controls diverged on repeated merge")
	}
}

func TestApply_ControlsLastWriteWinsEitherOrder(t *testing.T) {
	older := models.Controls{SelectedCurrency: "USD", UpdateIntervalMs: 2000, LastUpdated: 10}
	newer := models.Controls{SelectedCurrency: "EUR", UpdateIntervalMs: 5000, LastUpdated: 20}

	a := merge.NewWatchState()
	a.Apply(merge.Snapshot{Controls: older})
	a.Apply(merge.Snapshot{Controls: newer})

	b := merge.NewWatchState()
	b.Apply(merge.Snapshot{Controls: newer})
	b.Apply(merge.Snapshot{Controls: older})

	if a.Controls != newer || b.Controls != newer {
		t.Errorf("LWW convergence failed: a=%+v b=%+v", a.Controls, b.Controls)
	}
}
