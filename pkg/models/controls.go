package models

// MinUpdateIntervalMs is the floor for the simulation tick interval.
const MinUpdateIntervalMs = 1000

// SupportedCurrencies is the fixed set selectedCurrency must belong to.
var SupportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"JPY": true,
	"CAD": true,
}

// Controls holds the session-wide simulation parameters. EmergencyStopped
// implies paused for simulation purposes regardless of IsPaused.
type Controls struct {
	IsPaused           bool   `json:"isPaused"`
	IsEmergencyStopped bool   `json:"isEmergencyStopped"`
	UpdateIntervalMs   int    `json:"updateIntervalMs"`
	SelectedCurrency   string `json:"selectedCurrency"`
	LastUpdated        int64  `json:"lastUpdated"` // unix micro
}

// Active reports whether the scheduler should mutate prices on a tick.
func (c Controls) Active() bool {
	return !c.IsPaused && !c.IsEmergencyStopped
}

// ControlsPatch is a partial update to Controls. Every optional field is
// enumerated explicitly; nil means "leave unchanged". A patch is applied
// all-or-nothing after validation.
type ControlsPatch struct {
	IsPaused           *bool   `json:"isPaused,omitempty"`
	IsEmergencyStopped *bool   `json:"isEmergencyStopped,omitempty"`
	UpdateIntervalMs   *int    `json:"updateIntervalMs,omitempty"`
	SelectedCurrency   *string `json:"selectedCurrency,omitempty"`
}
