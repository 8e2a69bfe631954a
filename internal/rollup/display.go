package rollup

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"leasingedge-engine/internal/domain"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders a whole-dollar amount with thousands separators.
func FormatCurrency(d decimal.Decimal) string {
	n := d.RoundBank(0).IntPart()
	if n < 0 {
		return printer.Sprintf("-$%d", -n)
	}
	return printer.Sprintf("$%d", n)
}

// DisplayRow is a rollup row as shown to people and sent to the model.
type DisplayRow struct {
	Beds           int    `json:"beds"`
	Internal       bool   `json:"internal"`
	Property       string `json:"property"`
	GrossPrice     string `json:"gross_price"`
	Sqft           int64  `json:"sqft"`
	AvailableUnits int    `json:"available_units"`
}

func Display(rows []domain.RollupRow) []DisplayRow {
	out := make([]DisplayRow, len(rows))
	for i, r := range rows {
		out[i] = DisplayRow{
			Beds:           r.Beds,
			Internal:       r.Internal,
			Property:       r.Property,
			GrossPrice:     FormatCurrency(r.GrossPrice),
			Sqft:           r.Sqft,
			AvailableUnits: r.AvailableUnits,
		}
	}
	return out
}

// DisplayViews is Views with formatted prices.
type DisplayViews struct {
	Average []DisplayRow `json:"average_view"`
	Minimum []DisplayRow `json:"minimum_view"`
	Largest []DisplayRow `json:"largest_view"`
}

func (v Views) Display() DisplayViews {
	return DisplayViews{Average: Display(v.Average), Minimum: Display(v.Minimum), Largest: Display(v.Largest)}
}
