package validate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/validate"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

func TestSymbol(t *testing.T) {
	valid := []string{"A", "BNOX", "BRK.B", "A1B2C3D4E5"}
	for _, s := range valid {
		if err := validate.Symbol(s); err != nil {
			t.Errorf("Expected %q to be valid, got %v", s, err)
		}
	}

	invalid := []string{"", "bnox", "TOOLONGSYMBOL", "BN OX", "BN-OX"}
	for _, s := range invalid {
		if err := validate.Symbol(s); err == nil {
			t.Errorf("Expected %q to be rejected", s)
		}
	}
}

func TestSanitizeSymbol(t *testing.T) {
	if got := validate.SanitizeSymbol("  bnox "); got != "BNOX" {
		t.Errorf("Expected BNOX, got %s", got)
	}
	if got := validate.SanitizeSymbol(strings.Repeat("A", 20)); len(got) != 10 {
		t.Errorf("Expected truncation to 10 chars, got %d", len(got))
	}
}

func TestInterval_Boundary(t *testing.T) {
	if err := validate.Interval(999); err == nil {
		t.Error("999ms should be rejected")
	}
	if err := validate.Interval(1000); err != nil {
		t.Errorf("1000ms should be accepted, got %v", err)
	}
}

func TestCurrency(t *testing.T) {
	if err := validate.Currency("XYZ"); err == nil {
		t.Error("XYZ should be rejected")
	}
	if err := validate.Currency("EUR"); err != nil {
		t.Errorf("EUR should be accepted, got %v", err)
	}
}

func TestPrice_Bounds(t *testing.T) {
	if err := validate.Price(-0.01); err == nil {
		t.Error("negative price should be rejected")
	}
	if err := validate.Price(1_000_000.01); err == nil {
		t.Error("price above cap should be rejected")
	}
	if err := validate.Price(0); err != nil {
		t.Errorf("zero price should be accepted, got %v", err)
	}
}

func TestControlsPatch_NamesOffendingField(t *testing.T) {
	bad := "XYZ"
	err := validate.ControlsPatch(models.ControlsPatch{SelectedCurrency: &bad})
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var fe *validate.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FieldError, got %T", err)
	}
	if fe.Field != "selectedCurrency" {
		t.Errorf("Expected field selectedCurrency, got %s", fe.Field)
	}
}
