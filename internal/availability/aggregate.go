package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	"leasingedge-engine/internal/domain"
	"leasingedge-engine/internal/refdata"
)

// MalformedPolicy decides what happens to a row whose layout code has no
// "<beds>x<baths>" pattern.
type MalformedPolicy string

const (
	DropMalformed MalformedPolicy = "drop"
	FailMalformed MalformedPolicy = "fail"
)

var ErrInternalMissingData = errors.New("internal comparable has no unit history")

// MissingDataError aborts aggregation: an internally managed comp must have data.
type MissingDataError struct {
	Property    string
	HellodataID string
	Err         error
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("internal comp %s (%s): %v", e.Property, e.HellodataID, e.Err)
}

func (e *MissingDataError) Unwrap() []error { return []error{ErrInternalMissingData, e.Err} }

type MalformedLayoutError struct {
	HellodataID string
	UnitName    string
	UnitGroup   string
}

func (e *MalformedLayoutError) Error() string {
	return fmt.Sprintf("comp %s unit %q: malformed layout %q", e.HellodataID, e.UnitName, e.UnitGroup)
}

var layoutRE = regexp.MustCompile(`(\d+)x(\d+)`)

// ParseLayout reads the first "<beds>x<baths>" pair out of a layout code.
func ParseLayout(code string) (beds, baths int, ok bool) {
	m := layoutRE.FindStringSubmatch(code)
	if m == nil {
		return 0, 0, false
	}
	b, err1 := strconv.Atoi(m[1])
	ba, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return b, ba, true
}

// Source is the slice of reference data the aggregator reads.
type Source interface {
	UnitHistory(ctx context.Context, hellodataID string) ([]domain.UnitObservation, error)
	IsInternal(hellodataID string) bool
}

type Aggregator struct {
	Source     Source
	AsOf       time.Time
	WindowDays int
	Policy     MalformedPolicy
	Log        *slog.Logger
}

// Aggregate builds the availability table for one prospect across its
// comparable set. Comps are visited in order and their rows concatenated.
func (a *Aggregator) Aggregate(ctx context.Context, comps []domain.Comp, p domain.Prospect) ([]domain.AvailabilityRow, error) {
	want := make(map[int]bool)
	for _, b := range []int{domain.Studio, domain.OneBed, domain.TwoBed, domain.ThreeBed, domain.FourBed} {
		if p.BedroomPreference(b) {
			want[b] = true
		}
	}
	if len(want) == 0 {
		return nil, nil
	}

	asOf := refdata.DateOnly(a.AsOf)
	from := asOf.AddDate(0, 0, -a.WindowDays)
	log := a.logger()

	var out []domain.AvailabilityRow
	for _, c := range comps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		internal := a.Source.IsInternal(c.HellodataID)

		obs, err := a.Source.UnitHistory(ctx, c.HellodataID)
		if err == nil && len(obs) == 0 {
			err = refdata.ErrNoUnitHistory
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if internal {
				return nil, &MissingDataError{Property: c.Property, HellodataID: c.HellodataID, Err: err}
			}
			log.Info("skipping comp without unit history", "comp", c.HellodataID, "name", c.Name, "err", err)
			continue
		}

		rows, err := a.filter(obs, c.HellodataID, want, from, asOf)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].Internal = internal
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (a *Aggregator) filter(obs []domain.UnitObservation, compID string, want map[int]bool, from, to time.Time) ([]domain.AvailabilityRow, error) {
	type kept struct {
		pos int
		row domain.AvailabilityRow
	}
	latest := make(map[string]kept)
	dropped := 0

	for i, o := range obs {
		beds, baths, ok := ParseLayout(o.UnitGroup)
		if !ok {
			if a.Policy == FailMalformed {
				return nil, &MalformedLayoutError{HellodataID: compID, UnitName: o.UnitName, UnitGroup: o.UnitGroup}
			}
			dropped++
			continue
		}
		if !want[beds] {
			continue
		}
		d := refdata.DateOnly(o.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		// Later file rows win date ties.
		if prev, seen := latest[o.UnitName]; seen && o.Date.Before(prev.row.Date) {
			continue
		}
		latest[o.UnitName] = kept{pos: i, row: domain.AvailabilityRow{UnitObservation: o, Beds: beds, Baths: baths}}
	}
	if dropped > 0 {
		a.logger().Warn("dropped rows with malformed layout", "comp", compID, "rows", dropped)
	}

	ks := make([]kept, 0, len(latest))
	for _, k := range latest {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].pos < ks[j].pos })

	rows := make([]domain.AvailabilityRow, len(ks))
	for i, k := range ks {
		rows[i] = k.row
	}
	return rows, nil
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}
