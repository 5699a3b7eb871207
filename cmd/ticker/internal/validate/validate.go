package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

const (
	MaxSymbolLen = 10
	MaxNameLen   = 100
	MaxPrice     = 1_000_000
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.]+$`)

// FieldError identifies exactly which input field was rejected. Every
// mutation path returns one of these before any state is touched.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SanitizeSymbol trims, uppercases and truncates before validation.
func SanitizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > MaxSymbolLen {
		s = s[:MaxSymbolLen]
	}
	return s
}

// SanitizeName trims and truncates before validation.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxNameLen {
		s = s[:MaxNameLen]
	}
	return s
}

func Symbol(s string) error {
	if s == "" || len(s) > MaxSymbolLen || !symbolPattern.MatchString(s) {
		return &FieldError{Field: "symbol", Reason: "must be 1-10 chars of A-Z, 0-9 or '.'"}
	}
	return nil
}

func Name(s string) error {
	if s == "" || len(s) > MaxNameLen {
		return &FieldError{Field: "name", Reason: "must be 1-100 chars"}
	}
	return nil
}

func Price(p float64) error {
	if p < 0 || p > MaxPrice {
		return &FieldError{Field: "price", Reason: "must be between 0 and 1000000"}
	}
	return nil
}

func Interval(ms int) error {
	if ms < models.MinUpdateIntervalMs {
		return &FieldError{Field: "updateIntervalMs", Reason: "must be >= 1000"}
	}
	return nil
}

func Currency(c string) error {
	if !models.SupportedCurrencies[c] {
		return &FieldError{Field: "selectedCurrency", Reason: "unsupported currency"}
	}
	return nil
}

// ControlsPatch checks every field present in the patch. The caller applies
// the patch only when this returns nil, so rejection is all-or-nothing.
func ControlsPatch(p models.ControlsPatch) error {
	if p.UpdateIntervalMs != nil {
		if err := Interval(*p.UpdateIntervalMs); err != nil {
			return err
		}
	}
	if p.SelectedCurrency != nil {
		if err := Currency(*p.SelectedCurrency); err != nil {
			return err
		}
	}
	return nil
}
