package domain

import (
	"encoding/json"
	"time"
)

// ConcessionRecord is a raw row of the concessions history file.
type ConcessionRecord struct {
	PropertyID     string
	FromDate       *time.Time
	ToDate         time.Time
	ConcessionText string
}

type Concession struct {
	Property       string `json:"property"`
	ConcessionText string `json:"concession_text"`
	FromDate       string `json:"from_date"`
	ToDate         string `json:"to_date"`
	Internal       bool   `json:"internal"`
}

type FeeRow struct {
	Asset           string   `json:"asset"`
	HellodataID     string   `json:"hellodata_id"`
	CatsMonthlyRent *float64 `json:"cats_monthly_rent"`
	CatsOneTimeFee  *float64 `json:"cats_one_time_fee"`
	CatsDeposit     *float64 `json:"cats_deposit"`
	DogsMonthlyRent *float64 `json:"dogs_monthly_rent"`
	DogsOneTimeFee  *float64 `json:"dogs_one_time_fee"`
	DogsDeposit     *float64 `json:"dogs_deposit"`
	AdminFee        *float64 `json:"admin_fee"`
	AmenityFee      *float64 `json:"amenity_fee"`
	ApplicationFee  *float64 `json:"application_fee"`
	StorageFee      *float64 `json:"storage_fee"`
}

// AmenityRow holds per-asset presence flags keyed by amenity name.
type AmenityRow struct {
	Asset   string
	Present map[string]bool
}

// MarshalJSON flattens the flags next to the asset name, one column per amenity.
func (a AmenityRow) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(a.Present)+1)
	for k, v := range a.Present {
		m[k] = v
	}
	m["asset"] = a.Asset
	return json.Marshal(m)
}
