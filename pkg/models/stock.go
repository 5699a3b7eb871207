package models

// PricePoint is one sampled price in an instrument's history.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"` // unix micro
	Price     float64 `json:"price"`
}

// MaxHistory caps priceHistory length per instrument. Oldest entries are
// evicted on overflow so memory stays bounded and recency-biased.
const MaxHistory = 100

// Instrument is a single simulated tradable entity owned by one session.
type Instrument struct {
	Symbol           string       `json:"symbol"`
	Name             string       `json:"name"`
	CurrentPrice     float64      `json:"currentPrice"`
	PreviousPrice    float64      `json:"previousPrice"`
	InitialPrice     float64      `json:"initialPrice"`
	PercentageChange float64      `json:"percentageChange"`
	PriceHistory     []PricePoint `json:"priceHistory"`
	LastUpdated      int64        `json:"lastUpdated"` // unix micro
}

// RecordPrice rolls the current price into previous, applies the new price,
// recomputes the derived change and appends to history with trim-on-append.
func (i *Instrument) RecordPrice(price float64, now int64) {
	i.PreviousPrice = i.CurrentPrice
	i.CurrentPrice = price
	i.PercentageChange = PercentChange(i.CurrentPrice, i.PreviousPrice)
	i.PriceHistory = append(i.PriceHistory, PricePoint{Timestamp: now, Price: price})
	if len(i.PriceHistory) > MaxHistory {
		i.PriceHistory = i.PriceHistory[len(i.PriceHistory)-MaxHistory:]
	}
	if now > i.LastUpdated {
		i.LastUpdated = now
	}
}

// Clone returns a deep copy so callers can hold a snapshot outside the
// session lock.
func (i *Instrument) Clone() Instrument {
	out := *i
	out.PriceHistory = make([]PricePoint, len(i.PriceHistory))
	copy(out.PriceHistory, i.PriceHistory)
	return out
}

// PercentChange is (current-previous)/previous*100, or 0 when previous is 0.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// TickEvent is the Kafka feed record emitted for each applied simulation
// step. Keyed by symbol so partition ordering holds per instrument.
type TickEvent struct {
	SessionKey string  `json:"session_key"`
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Timestamp  int64   `json:"timestamp"` // unix micro
	SeqID      int64   `json:"seq_id"`    // monotonic counter per symbol
}
