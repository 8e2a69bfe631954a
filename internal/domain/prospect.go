package domain

// Bedroom counts a prospect can express interest in, studio through four-bedroom.
const (
	Studio   = 0
	OneBed   = 1
	TwoBed   = 2
	ThreeBed = 3
	FourBed  = 4
)

var BedroomDisplayNames = map[int]string{
	Studio:   "Studio",
	OneBed:   "1 Bed",
	TwoBed:   "2 Bed",
	ThreeBed: "3 Bed",
	FourBed:  "4 Bed",
}

type Prospect struct {
	ID       int64  `json:"client_id"`
	Email    string `json:"client_email"`
	FullName string `json:"client_full_name"`
	Status   string `json:"client_status"`
	Notes    string `json:"notes"`

	LaundryPreference      string `json:"laundry_preference"`
	OutdoorSpacePreference string `json:"outdoor_space_preference"`
	ParkingPreference      string `json:"parking_preference"`
	PetPreference          string `json:"pet_preference"`

	StudioPreference   bool `json:"studio_preference"`
	OneBedPreference   bool `json:"onebed_preference"`
	TwoBedPreference   bool `json:"twobed_preference"`
	ThreeBedPreference bool `json:"threebed_preference"`
	FourBedPreference  bool `json:"fourbed_preference"`

	// Filled from note extraction, never from the roster.
	PriceCeiling *int64 `json:"client_price_ceiling"`
	SqftMin      *int64 `json:"client_sqft_min"`

	// Set once the prospect is joined to its community and property.
	CommunityID       int64  `json:"pms_community_id,omitempty"`
	HellodataID       string `json:"hellodata_id,omitempty"`
	HellodataProperty string `json:"hellodata_property,omitempty"`
	ParentAssetName   string `json:"ParentAssetName,omitempty"`
}

// BedroomPreference returns the flag for a bed count. Unknown counts are false.
func (p Prospect) BedroomPreference(beds int) bool {
	switch beds {
	case Studio:
		return p.StudioPreference
	case OneBed:
		return p.OneBedPreference
	case TwoBed:
		return p.TwoBedPreference
	case ThreeBed:
		return p.ThreeBedPreference
	case FourBed:
		return p.FourBedPreference
	}
	return false
}

// SetBedroomPreference sets the flag for a bed count; unknown counts are ignored.
func (p *Prospect) SetBedroomPreference(beds int, v bool) {
	switch beds {
	case Studio:
		p.StudioPreference = v
	case OneBed:
		p.OneBedPreference = v
	case TwoBed:
		p.TwoBedPreference = v
	case ThreeBed:
		p.ThreeBedPreference = v
	case FourBed:
		p.FourBedPreference = v
	}
}
