package availability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasingedge-engine/internal/domain"
	"leasingedge-engine/internal/logging"
	"leasingedge-engine/internal/refdata"
)

var asOf = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	history  map[string][]domain.UnitObservation
	errs     map[string]error
	internal map[string]bool
}

func (f fakeSource) UnitHistory(_ context.Context, id string) ([]domain.UnitObservation, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	rows, ok := f.history[id]
	if !ok {
		return nil, fmt.Errorf("unit history %s: %w", id, refdata.ErrNoUnitHistory)
	}
	return rows, nil
}

func (f fakeSource) IsInternal(id string) bool { return f.internal[id] }

func obs(id, unit, group string, price, sqft int64, daysAgo int) domain.UnitObservation {
	return domain.UnitObservation{
		HellodataID: id,
		Property:    "Prop " + id,
		UnitName:    unit,
		UnitGroup:   group,
		GrossPrice:  decimal.NewFromInt(price),
		Sqft:        decimal.NewFromInt(sqft),
		Date:        asOf.AddDate(0, 0, -daysAgo),
	}
}

func newAggregator(src Source, policy MalformedPolicy) *Aggregator {
	return &Aggregator{Source: src, AsOf: asOf, WindowDays: 7, Policy: policy, Log: logging.Discard()}
}

func oneBed() domain.Prospect { return domain.Prospect{OneBedPreference: true} }

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in          string
		beds, baths int
		ok          bool
	}{
		{"1x1", 1, 1, true},
		{"2x2", 2, 2, true},
		{"0x1", 0, 1, true},
		{"A2 - 1x1 Den", 1, 1, true},
		{"10x3", 10, 3, true},
		{"Studio", 0, 0, false},
		{"1 x 1", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		b, ba, ok := ParseLayout(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.beds, b, tt.in)
		assert.Equal(t, tt.baths, ba, tt.in)
	}
}

func TestAggregateFiltersAndDedupes(t *testing.T) {
	src := fakeSource{
		history: map[string][]domain.UnitObservation{
			"ext": {
				obs("ext", "101", "1x1", 1500, 780, 6),
				obs("ext", "102", "2x2", 2100, 1100, 1),
				obs("ext", "103", "1x1", 1600, 820, 12),
				obs("ext", "101", "1x1", 1550, 780, 2),
				obs("ext", "104", "1x1", 1575, 810, 0),
				obs("ext", "105", "1x1", 1590, 800, -1),
			},
		},
	}
	rows, err := newAggregator(src, DropMalformed).Aggregate(context.Background(),
		[]domain.Comp{{Property: "The Elm", HellodataID: "ext"}}, oneBed())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "101", rows[0].UnitName)
	assert.Equal(t, "1550", rows[0].GrossPrice.String())
	assert.Equal(t, "104", rows[1].UnitName)
	for _, r := range rows {
		assert.Equal(t, 1, r.Beds)
		assert.Equal(t, 1, r.Baths)
		assert.False(t, r.Internal)
	}
}

func TestAggregateKeepsFilePositionOfWinningRow(t *testing.T) {
	src := fakeSource{history: map[string][]domain.UnitObservation{
		"ext": {
			obs("ext", "A", "1x1", 1000, 700, 5),
			obs("ext", "B", "1x1", 1100, 700, 4),
			obs("ext", "A", "1x1", 1200, 700, 1),
			obs("ext", "B", "1x1", 1300, 700, 4),
		},
	}}
	rows, err := newAggregator(src, DropMalformed).Aggregate(context.Background(),
		[]domain.Comp{{HellodataID: "ext"}}, oneBed())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].UnitName)
	assert.Equal(t, "1200", rows[0].GrossPrice.String())
	assert.Equal(t, "B", rows[1].UnitName)
	assert.Equal(t, "1300", rows[1].GrossPrice.String())
}

func TestAggregateSubsetAndIdempotent(t *testing.T) {
	src := fakeSource{
		history: map[string][]domain.UnitObservation{
			"own": {obs("own", "1", "1x1", 1500, 790, 1), obs("own", "2", "2x1", 1900, 950, 1)},
			"ext": {obs("ext", "9", "1x1", 1600, 816, 3)},
		},
		internal: map[string]bool{"own": true},
	}
	comps := []domain.Comp{{HellodataID: "own"}, {HellodataID: "missing"}, {HellodataID: "ext"}}
	p := domain.Prospect{OneBedPreference: true, ThreeBedPreference: true}
	agg := newAggregator(src, DropMalformed)

	first, err := agg.Aggregate(context.Background(), comps, p)
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background(), comps, p)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 2)
	assert.True(t, first[0].Internal)
	assert.False(t, first[1].Internal)
	for _, r := range first {
		assert.True(t, p.BedroomPreference(r.Beds))
		assert.False(t, r.Date.After(asOf))
		assert.False(t, r.Date.Before(asOf.AddDate(0, 0, -7)))
	}
}

func TestAggregateInternalMissingDataIsFatal(t *testing.T) {
	src := fakeSource{internal: map[string]bool{"own": true}}
	_, err := newAggregator(src, DropMalformed).Aggregate(context.Background(),
		[]domain.Comp{{Property: "The Elm", HellodataID: "own"}}, oneBed())

	var mde *MissingDataError
	require.ErrorAs(t, err, &mde)
	assert.Equal(t, "The Elm", mde.Property)
	assert.Equal(t, "own", mde.HellodataID)
	assert.ErrorIs(t, err, ErrInternalMissingData)
	assert.ErrorIs(t, err, refdata.ErrNoUnitHistory)
}

func TestAggregateInternalOutOfWindowIsNotFatal(t *testing.T) {
	src := fakeSource{
		history:  map[string][]domain.UnitObservation{"own": {obs("own", "1", "1x1", 1500, 790, 30)}},
		internal: map[string]bool{"own": true},
	}
	rows, err := newAggregator(src, DropMalformed).Aggregate(context.Background(),
		[]domain.Comp{{HellodataID: "own"}}, oneBed())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAggregateUnparseableFile(t *testing.T) {
	bad := &refdata.ParseError{File: "x.csv", Line: 2, Column: "date", Value: "??", Err: errors.New("bad date")}
	src := fakeSource{
		errs:     map[string]error{"own": bad, "ext": bad},
		internal: map[string]bool{"own": true},
	}
	agg := newAggregator(src, DropMalformed)

	rows, err := agg.Aggregate(context.Background(), []domain.Comp{{HellodataID: "ext"}}, oneBed())
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = agg.Aggregate(context.Background(), []domain.Comp{{HellodataID: "own"}}, oneBed())
	var pe *refdata.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrInternalMissingData)
}

func TestAggregateZeroPreferences(t *testing.T) {
	src := fakeSource{internal: map[string]bool{"own": true}}
	rows, err := newAggregator(src, FailMalformed).Aggregate(context.Background(),
		[]domain.Comp{{HellodataID: "own"}}, domain.Prospect{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAggregateMalformedPolicy(t *testing.T) {
	src := fakeSource{history: map[string][]domain.UnitObservation{
		"ext": {obs("ext", "1", "Studio", 1200, 500, 1), obs("ext", "2", "1x1", 1500, 790, 1)},
	}}
	comps := []domain.Comp{{HellodataID: "ext"}}

	rows, err := newAggregator(src, DropMalformed).Aggregate(context.Background(), comps, oneBed())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].UnitName)

	_, err = newAggregator(src, FailMalformed).Aggregate(context.Background(), comps, oneBed())
	var mle *MalformedLayoutError
	require.ErrorAs(t, err, &mle)
	assert.Equal(t, "Studio", mle.UnitGroup)
}

func TestAggregateHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newAggregator(fakeSource{}, DropMalformed).Aggregate(ctx, []domain.Comp{{HellodataID: "x"}}, oneBed())
	assert.ErrorIs(t, err, context.Canceled)
}
