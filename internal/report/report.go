package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"leasingedge-engine/internal/domain"
	"leasingedge-engine/internal/narrative"
	"leasingedge-engine/internal/prospect"
	"leasingedge-engine/internal/rollup"
)

var (
	ErrNoBedroomPreferences = errors.New("prospect has no bedroom preferences")
	ErrNoComparables        = errors.New("property has no listed comparables")
	ErrNoAvailability       = errors.New("no units available for the selected bedroom preferences")
	ErrUnknownMode          = errors.New("unknown unit view mode")
)

// Report is everything produced for one prospect in one run.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	AsOf      string    `json:"as_of"`

	Prospect   domain.Prospect     `json:"prospect"`
	Extraction prospect.Extraction `json:"extraction"`

	Availability []domain.AvailabilityRow `json:"availability"`
	Views        rollup.Views             `json:"views"`
	Display      rollup.DisplayViews      `json:"display"`
	Amenities    []domain.AmenityRow      `json:"amenities"`
	Fees         []domain.FeeRow          `json:"fees"`
	Concessions  []domain.Concession      `json:"concessions"`

	Summary        string `json:"summary"`
	SummaryEscaped string `json:"summary_escaped"`
	Model          string `json:"model"`

	Transcripts Transcripts `json:"transcripts"`
	AuditIDs    []string    `json:"audit_ids,omitempty"`
}

type Transcripts struct {
	Extraction narrative.Transcript `json:"extraction,omitempty"`
	Summary    narrative.Transcript `json:"summary"`
}

// View modes for Units.
const (
	ModeIndividual = "individual"
	ModeAverage    = "average"
	ModeMinimum    = "minimum"
	ModeMaximum    = "maximum"
)

// UnitsView is one filtered look at a report's availability.
type UnitsView struct {
	Mode    string                   `json:"mode"`
	Beds    []int                    `json:"beds"`
	Units   []domain.AvailabilityRow `json:"units,omitempty"`
	Rollups []rollup.DisplayRow      `json:"rollups,omitempty"`
}

// Units filters the report to the given bed counts (all when empty) and
// shows either individual units or one of the rollups.
func (r *Report) Units(beds []int, mode string) (UnitsView, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeIndividual
	}
	keep := func(b int) bool {
		if len(beds) == 0 {
			return true
		}
		for _, x := range beds {
			if x == b {
				return true
			}
		}
		return false
	}

	v := UnitsView{Mode: mode, Beds: beds}
	if v.Beds == nil {
		v.Beds = []int{}
	}

	var source []domain.RollupRow
	switch mode {
	case ModeIndividual:
		v.Units = []domain.AvailabilityRow{}
		for _, u := range r.Availability {
			if keep(u.Beds) {
				v.Units = append(v.Units, u)
			}
		}
		return v, nil
	case ModeAverage:
		source = r.Views.Average
	case ModeMinimum:
		source = r.Views.Minimum
	case ModeMaximum:
		source = r.Views.Largest
	default:
		return UnitsView{}, fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}

	var filtered []domain.RollupRow
	for _, row := range source {
		if keep(row.Beds) {
			filtered = append(filtered, row)
		}
	}
	v.Rollups = rollup.Display(filtered)
	return v, nil
}
