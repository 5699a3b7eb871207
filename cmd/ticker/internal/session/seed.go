package session

import "github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"

// DefaultInstruments is the fixed demo set every fresh session starts with.
func DefaultInstruments() []models.Instrument {
	mk := func(symbol, name string, price float64) models.Instrument {
		return models.Instrument{
			Symbol:        symbol,
			Name:          name,
			CurrentPrice:  price,
			PreviousPrice: price,
			InitialPrice:  price,
		}
	}
	return []models.Instrument{
		mk("BNOX", "Bane&Ox Inc.", 185.75),
		mk("GLTR", "Goliath Transit Lines", 97.30),
		mk("NMED", "Nexus Medical Systems", 244.10),
	}
}

// DefaultControls builds the controls a fresh session starts with.
func DefaultControls(intervalMs int, currency string) models.Controls {
	return models.Controls{
		UpdateIntervalMs: intervalMs,
		SelectedCurrency: currency,
	}
}
