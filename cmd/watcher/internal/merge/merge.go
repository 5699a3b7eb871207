// Package merge resolves divergence between the watcher's local optimistic
// state and freshly polled authoritative snapshots. Resolution is
// last-write-wins per whole record, never per field, so derived values such
// as percentageChange always come from one consistent source.
package merge

import (
	"sort"

	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// Snapshot is one authoritative read from the server.
type Snapshot struct {
	Stocks   []models.Instrument
	Controls models.Controls
}

// WatchState is the local optimistic copy. Not self-locking: the owner
// serializes access.
type WatchState struct {
	Instruments map[string]models.Instrument
	Controls    models.Controls
}

func NewWatchState() *WatchState {
	return &WatchState{Instruments: make(map[string]models.Instrument)}
}

// Apply reconciles a snapshot into the local state. Per symbol:
//   - remote-only: insert (server-originated addition)
//   - local-only: retain (pending local addition, not yet round-tripped)
//   - both: adopt the full remote record only when its lastUpdated is
//     strictly newer; ties and local-newer keep the local record, so an
//     uncommitted edit is never clobbered by a stale snapshot.
//
// Controls merge the same way as a single record. Applying the same
// snapshot twice is a no-op the second time.
func (ws *WatchState) Apply(remote Snapshot) {
	for _, r := range remote.Stocks {
		local, ok := ws.Instruments[r.Symbol]
		if !ok || r.LastUpdated > local.LastUpdated {
			ws.Instruments[r.Symbol] = r.Clone()
		}
	}

	if remote.Controls.LastUpdated > ws.Controls.LastUpdated {
		ws.Controls = remote.Controls
	}
}

// PutInstrument records a local optimistic edit stamped at now.
func (ws *WatchState) PutInstrument(inst models.Instrument, now int64) {
	inst.LastUpdated = now
	ws.Instruments[inst.Symbol] = inst.Clone()
}

// PutControls records a local optimistic controls edit stamped at now.
func (ws *WatchState) PutControls(c models.Controls, now int64) {
	c.LastUpdated = now
	ws.Controls = c
}

// Stocks returns a sorted deep copy for consumers.
func (ws *WatchState) Stocks() []models.Instrument {
	out := make([]models.Instrument, 0, len(ws.Instruments))
	for _, inst := range ws.Instruments {
		out = append(out, inst.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
