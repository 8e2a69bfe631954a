package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitObservation is one row of a per-property unit history file.
type UnitObservation struct {
	HellodataID string          `json:"hellodata_id"`
	Property    string          `json:"property"`
	UnitName    string          `json:"unit_name"`
	UnitGroup   string          `json:"unit_group"`
	Sqft        decimal.Decimal `json:"sqft"`
	GrossPrice  decimal.Decimal `json:"gross_price"`
	Date        time.Time       `json:"date"`
}

// AvailabilityRow is an observation that survived bedroom, recency and
// per-unit filtering for one prospect.
type AvailabilityRow struct {
	UnitObservation
	Beds     int  `json:"beds"`
	Baths    int  `json:"baths"`
	Internal bool `json:"internal"`
}

type RollupRow struct {
	Beds           int             `json:"beds"`
	Internal       bool            `json:"internal"`
	Property       string          `json:"property"`
	GrossPrice     decimal.Decimal `json:"gross_price"`
	Sqft           int64           `json:"sqft"`
	AvailableUnits int             `json:"available_units"`
}
