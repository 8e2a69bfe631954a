package domain

import "github.com/shopspring/decimal"

// PropertyRef maps a property-management community to its market-data property.
type PropertyRef struct {
	OSLPropertyID     int64  `json:"oslPropertyID"`
	HellodataID       string `json:"hellodata_id"`
	HellodataProperty string `json:"hellodata_property"`
	ParentAssetName   string `json:"ParentAssetName"`
}

type GroupAssignment struct {
	ClientID    int64
	CommunityID int64
}

// Comp is one entry of a subject property's comparable set.
type Comp struct {
	Property    string `json:"property"`
	HellodataID string `json:"hellodata_id"`
	Name        string `json:"comp_name,omitempty"`
	Internal    bool   `json:"internal"`
}

// CompDetail is one row of the static comp-details table. Fee columns are
// nullable; amenity columns hold the raw free-text or list-valued source.
type CompDetail struct {
	Asset           string           `json:"asset"`
	HellodataID     string           `json:"hellodata_id"`
	YearBuilt       *int64           `json:"year_built"`
	CatsMonthlyRent *decimal.Decimal `json:"cats_monthly_rent"`
	CatsOneTimeFee  *decimal.Decimal `json:"cats_one_time_fee"`
	CatsDeposit     *decimal.Decimal `json:"cats_deposit"`
	DogsMonthlyRent *decimal.Decimal `json:"dogs_monthly_rent"`
	DogsOneTimeFee  *decimal.Decimal `json:"dogs_one_time_fee"`
	DogsDeposit     *decimal.Decimal `json:"dogs_deposit"`
	AdminFee        *decimal.Decimal `json:"admin_fee"`
	AmenityFee      *decimal.Decimal `json:"amenity_fee"`
	ApplicationFee  *decimal.Decimal `json:"application_fee"`
	StorageFee      *decimal.Decimal `json:"storage_fee"`
	PropertyQuality string           `json:"property_quality"`

	BuildingAmenities *string `json:"-"`
	UnitAmenities     *string `json:"-"`
}
