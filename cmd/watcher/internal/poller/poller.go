// Package poller keeps a local optimistic session copy loosely synchronized
// with the ticker server by periodic polling and merge reconciliation.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/watcher/internal/merge"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// maxBackoff caps the retry delay after repeated poll failures.
const maxBackoff = 60 * time.Second

// for deterministic testing
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type stocksResponse struct {
	Success bool                `json:"success"`
	Stocks  []models.Instrument `json:"stocks"`
}

type controlsResponse struct {
	Success  bool            `json:"success"`
	Controls models.Controls `json:"controls"`
}

// Poller fetches authoritative snapshots on a fixed cadence and reconciles
// them into its local state. Poll failures are transient: the local state
// is retained untouched and the next attempt is delayed by an exponential
// backoff.
type Poller struct {
	client     *http.Client
	baseURL    string
	userID     string
	instanceID string
	interval   time.Duration
	clock      Clock
	logger     *zap.Logger

	mu    sync.Mutex
	state *merge.WatchState

	// OnChange fires with fresh copies after every successful merge.
	OnChange func(stocks []models.Instrument, controls models.Controls)
}

func New(baseURL, userID, instanceID string, interval, timeout time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userID:     userID,
		instanceID: instanceID,
		interval:   interval,
		clock:      realClock{},
		logger:     logger,
		state:      merge.NewWatchState(),
	}
}

// WithClock swaps the time source; tests use this for fixed timestamps.
func (p *Poller) WithClock(c Clock) *Poller {
	p.clock = c
	return p
}

// Run polls until ctx is cancelled. It returns once cancellation is
// observed; no timer outlives the call.
func (p *Poller) Run(ctx context.Context) {
	backoff := p.interval
	timer := time.NewTimer(0) // first poll immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return
		case <-timer.C:
		}

		if err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("Poll failed, retrying with backoff",
				zap.Duration("backoff", backoff), zap.Error(err))
			timer.Reset(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = p.interval
		timer.Reset(p.interval)
	}
}

// PollOnce fetches both snapshots and merges them. On any transport or
// decode failure the local state is left exactly as it was.
func (p *Poller) PollOnce(ctx context.Context) error {
	snap, err := p.fetch(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.state.Apply(snap)
	stocks := p.state.Stocks()
	controls := p.state.Controls
	p.mu.Unlock()

	if p.OnChange != nil {
		p.OnChange(stocks, controls)
	}
	return nil
}

func (p *Poller) fetch(ctx context.Context) (merge.Snapshot, error) {
	var stocks stocksResponse
	if err := p.get(ctx, "/stocks", &stocks); err != nil {
		return merge.Snapshot{}, err
	}

	var controls controlsResponse
	if err := p.get(ctx, "/controls", &controls); err != nil {
		return merge.Snapshot{}, err
	}

	return merge.Snapshot{Stocks: stocks.Stocks, Controls: controls.Controls}, nil
}

// Stocks returns the current local view.
func (p *Poller) Stocks() []models.Instrument {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Stocks()
}

// Controls returns the current local controls view.
func (p *Poller) Controls() models.Controls {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Controls
}

// EditInstrument records an optimistic local edit. It survives merges until
// the server reports a strictly newer record for the same symbol.
func (p *Poller) EditInstrument(inst models.Instrument) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.PutInstrument(inst, p.clock.Now().UnixMicro())
}

// PushInstrument submits a local edit to the server and reconciles the
// acknowledged record back into local state.
func (p *Poller) PushInstrument(ctx context.Context, symbol, name string, price float64) error {
	var resp struct {
		Success bool              `json:"success"`
		Stock   models.Instrument `json:"stock"`
	}
	body := map[string]interface{}{"symbol": symbol, "name": name, "price": price}
	if err := p.post(ctx, "/stocks", body, &resp); err != nil {
		return err
	}

	p.mu.Lock()
	p.state.Instruments[resp.Stock.Symbol] = resp.Stock
	p.mu.Unlock()
	return nil
}

// PushControls submits a controls patch and adopts the acknowledged record.
func (p *Poller) PushControls(ctx context.Context, patch models.ControlsPatch) error {
	var resp controlsResponse
	if err := p.post(ctx, "/controls", patch, &resp); err != nil {
		return err
	}

	p.mu.Lock()
	p.state.Controls = resp.Controls
	p.mu.Unlock()
	return nil
}

func (p *Poller) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	return p.do(req, out)
}

func (p *Poller) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, out)
}

func (p *Poller) do(req *http.Request, out interface{}) error {
	req.Header.Set("X-User-Id", p.userID)
	req.Header.Set("X-Instance-Id", p.instanceID)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
