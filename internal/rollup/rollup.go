package rollup

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"leasingedge-engine/internal/domain"
)

// ErrBedsMismatch means a row's layout disagrees with its parsed bed count.
// Aggregation produced inconsistent data; this is never a user error.
var ErrBedsMismatch = errors.New("bed count does not match layout")

// Reducer collapses one group's column values into a single value.
type Reducer struct {
	Name   string
	reduce func([]decimal.Decimal) decimal.Decimal
}

var (
	Mean = Reducer{Name: "mean", reduce: func(v []decimal.Decimal) decimal.Decimal { return decimal.Avg(v[0], v[1:]...) }}
	Min  = Reducer{Name: "min", reduce: func(v []decimal.Decimal) decimal.Decimal { return decimal.Min(v[0], v[1:]...) }}
	Max  = Reducer{Name: "max", reduce: func(v []decimal.Decimal) decimal.Decimal { return decimal.Max(v[0], v[1:]...) }}
)

type groupKey struct {
	beds     int
	internal bool
	property string
}

type group struct {
	prices []decimal.Decimal
	sqft   []decimal.Decimal
	units  map[string]struct{}
}

// leadingBeds reads the bed count as the integer before the first "x" of a
// layout code such as "2x1".
func leadingBeds(layout string) (int, bool) {
	head, _, found := strings.Cut(strings.TrimSpace(layout), "x")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(head)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Compute groups availability by (beds, internal, property) and reduces price
// and size with r. Results are rounded half-to-even to whole units.
func Compute(rows []domain.AvailabilityRow, r Reducer) ([]domain.RollupRow, error) {
	groups := make(map[groupKey]*group)
	for _, row := range rows {
		beds, ok := leadingBeds(row.UnitGroup)
		if !ok || beds != row.Beds {
			return nil, fmt.Errorf("unit %q layout %q beds %d: %w", row.UnitName, row.UnitGroup, row.Beds, ErrBedsMismatch)
		}
		k := groupKey{beds: beds, internal: row.Internal, property: row.Property}
		g := groups[k]
		if g == nil {
			g = &group{units: make(map[string]struct{})}
			groups[k] = g
		}
		g.prices = append(g.prices, row.GrossPrice)
		g.sqft = append(g.sqft, row.Sqft)
		g.units[row.UnitName] = struct{}{}
	}

	out := make([]domain.RollupRow, 0, len(groups))
	for k, g := range groups {
		out = append(out, domain.RollupRow{
			Beds:           k.beds,
			Internal:       k.internal,
			Property:       k.property,
			GrossPrice:     r.reduce(g.prices).RoundBank(0),
			Sqft:           r.reduce(g.sqft).RoundBank(0).IntPart(),
			AvailableUnits: len(g.units),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Beds != b.Beds {
			return a.Beds < b.Beds
		}
		if c := a.GrossPrice.Cmp(b.GrossPrice); c != 0 {
			return c < 0
		}
		if a.Property != b.Property {
			return a.Property < b.Property
		}
		return !a.Internal && b.Internal
	})
	return out, nil
}

// Views are the three market rollups computed from one availability table.
type Views struct {
	Average []domain.RollupRow `json:"average_view"`
	Minimum []domain.RollupRow `json:"minimum_view"`
	Largest []domain.RollupRow `json:"largest_view"`
}

func ComputeViews(rows []domain.AvailabilityRow) (Views, error) {
	var (
		v   Views
		err error
	)
	if v.Average, err = Compute(rows, Mean); err != nil {
		return Views{}, err
	}
	if v.Minimum, err = Compute(rows, Min); err != nil {
		return Views{}, err
	}
	if v.Largest, err = Compute(rows, Max); err != nil {
		return Views{}, err
	}
	return v, nil
}
