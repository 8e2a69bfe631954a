package prospect

import (
	"leasingedge-engine/internal/domain"
)

var allBeds = []int{domain.Studio, domain.OneBed, domain.TwoBed, domain.ThreeBed, domain.FourBed}

// SelectedBeds returns the bed counts the prospect is interested in, ascending.
func SelectedBeds(p domain.Prospect) []int {
	var out []int
	for _, b := range allBeds {
		if p.BedroomPreference(b) {
			out = append(out, b)
		}
	}
	return out
}

func HasBedroomPreferences(p domain.Prospect) bool {
	return len(SelectedBeds(p)) > 0
}

// WithBedroomPreferences replaces all bedroom flags with beds. Counts outside
// studio..four are ignored.
func WithBedroomPreferences(p domain.Prospect, beds []int) domain.Prospect {
	for _, b := range allBeds {
		p.SetBedroomPreference(b, false)
	}
	for _, b := range beds {
		p.SetBedroomPreference(b, true)
	}
	return p
}

// Extraction is what the note reader pulled out of free-text CRM notes.
type Extraction struct {
	FullName     string `json:"client_full_name,omitempty"`
	PriceCeiling *int64 `json:"client_price_ceiling,omitempty"`
	SqftMin      *int64 `json:"client_sqft_min,omitempty"`

	Studio   *bool `json:"studio_preference,omitempty"`
	OneBed   *bool `json:"onebed_preference,omitempty"`
	TwoBed   *bool `json:"twobed_preference,omitempty"`
	ThreeBed *bool `json:"threebed_preference,omitempty"`
	FourBed  *bool `json:"fourbed_preference,omitempty"`
}

func (e Extraction) Empty() bool {
	return e.FullName == "" && e.PriceCeiling == nil && e.SqftMin == nil &&
		e.Studio == nil && e.OneBed == nil && e.TwoBed == nil && e.ThreeBed == nil && e.FourBed == nil
}

func (e Extraction) bedFlag(beds int) *bool {
	switch beds {
	case domain.Studio:
		return e.Studio
	case domain.OneBed:
		return e.OneBed
	case domain.TwoBed:
		return e.TwoBed
	case domain.ThreeBed:
		return e.ThreeBed
	case domain.FourBed:
		return e.FourBed
	}
	return nil
}

// MergeExtracted fills gaps in p from an extraction. Roster values always win;
// extracted bedroom flags apply only when the roster has none set.
func MergeExtracted(p domain.Prospect, e Extraction) domain.Prospect {
	if p.FullName == "" && e.FullName != "" {
		p.FullName = e.FullName
	}
	if p.PriceCeiling == nil && e.PriceCeiling != nil {
		v := *e.PriceCeiling
		p.PriceCeiling = &v
	}
	if p.SqftMin == nil && e.SqftMin != nil {
		v := *e.SqftMin
		p.SqftMin = &v
	}
	if !HasBedroomPreferences(p) {
		for _, b := range allBeds {
			if f := e.bedFlag(b); f != nil {
				p.SetBedroomPreference(b, *f)
			}
		}
	}
	return p
}
