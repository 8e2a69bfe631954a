package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasingedge-engine/internal/availability"
	"leasingedge-engine/internal/events"
	"leasingedge-engine/internal/llm"
	"leasingedge-engine/internal/logging"
	"leasingedge-engine/internal/narrative"
	"leasingedge-engine/internal/prospect"
	"leasingedge-engine/internal/refdata"
	"leasingedge-engine/internal/rollup"
	"leasingedge-engine/internal/store"
)

var asOf = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(strings.TrimLeft(body, "\n")), 0o644))
	return p
}

func day(n int) string { return asOf.AddDate(0, 0, -n).Format("2006-01-02") }

// fixtures: prospect 18858422 wants a one-bed near The Elm (internal) with one
// external comp; prospect 30000003 has no bedroom preference; 40000004 is
// assigned to a property without comps.
func fixtures(t *testing.T) refdata.Paths {
	t.Helper()
	dir := t.TempDir()
	units := filepath.Join(dir, "units")

	write(t, units, "hd-elm.csv", fmt.Sprintf(`
property,unit_name,unit_group,sqft,gross_price,date
The Elm,101,1x1,710,1480,%s
The Elm,101,1x1,710,1395,%s
The Elm,204,1x1,838,1554,%s
The Elm,310,1x1,860,1700,%s
The Elm,402,2x2,1100,2100,%s
The Elm,509,1x1,900,1400,%s
`, day(5), day(2), day(1), day(0), day(1), day(20)))
	write(t, units, "hd-birch.csv", fmt.Sprintf(`
property,unit_name,unit_group,sqft,gross_price,date
Birch Court,A1,1x1,700,1425,%s
Birch Court,A2,1x1,760,1610,%s
`, day(3), day(4)))

	header := "client_id,client_email,client_full_name,client_status,laundry_preference,outdoor_space_preference,parking_preference,pet_preference,notes,studio_preference,onebed_preference,twobed_preference,threebed_preference,fourbed_preference\n"
	return refdata.Paths{
		Clients: write(t, dir, "clients.csv", header+`18858422,ana@example.com,Ana Ruiz,Active,In unit,,,,Wants a quiet unit,False,True,False,False,False
30000003,cy@example.com,Cy Park,Active,,,,,,False,False,False,False,False
40000004,di@example.com,Di Lo,Active,,,,,,False,True,False,False,False
50000005,ed@example.com,Ed Fox,Inactive,,,,,,False,True,False,False,False
`),
		GroupAssignment: write(t, dir, "group.csv", `
clientid,pms_community_id
18858422,501
30000003,501
40000004,502
`),
		InternalRef: write(t, dir, "internal_ref.csv", `
oslPropertyID,hellodata_id,hellodata_property,ParentAssetName
501,hd-elm,The Elm,Elm Holdings
502,hd-lone,Lone Pine,Pine LLC
`),
		MasterComplist: write(t, dir, "complist.csv", `
property,hellodata_id,comp_name
The Elm,hd-elm,The Elm
The Elm,hd-birch,Birch Court
The Elm,hd-gone,Gone Towers
`),
		Concessions: write(t, dir, "concessions.csv", fmt.Sprintf(`
property_id,from_date,to_date,concession_text
hd-birch,%s,%s,Six weeks free
hd-birch,%s,%s,Expired deal
`, day(30), day(1), day(40), day(10))),
		CompDetails: write(t, dir, "comp_details.csv", `
asset,hellodata_id,year_built,cats_monthly_rent,cats_one_time_fee,cats_deposit,dogs_monthly_rent,dogs_one_time_fee,dogs_deposit,admin_fee,amenity_fee,application_fee,storage_fee,property_quality,building_amenities,unit_amenities
The Elm,hd-elm,2012,25,,,35,,,150,,50,,A,"['fitness_center', 'elevator']",washer_dryer_in_unit dishwasher
Birch Court,hd-birch,1998,,,,,,,100,,75,,B,swimming_pool,
`),
		UnitHistoryDir: units,
	}
}

type recorder struct {
	paths refdata.Paths

	mu    sync.Mutex
	steps []events.Progress
	audit []store.SummaryInsert
}

func newService(t *testing.T, client llm.Client) (*Service, *recorder) {
	t.Helper()
	paths := fixtures(t)
	cache := refdata.NewCache(func(ctx context.Context) (*refdata.Tables, error) {
		return refdata.Load(ctx, paths, asOf, 7)
	})
	gen, err := narrative.New(client, narrative.DefaultPrompts(), logging.Discard())
	require.NoError(t, err)

	rec := &recorder{paths: paths}
	return &Service{
		Tables:    cache.Get,
		Narrative: gen,
		Policy:    availability.DropMalformed,
		Sessions:  NewSessions(4),
		Log:       logging.Discard(),
		Progress: func(_ string, p events.Progress) {
			rec.mu.Lock()
			rec.steps = append(rec.steps, p)
			rec.mu.Unlock()
		},
		Audit: func(_ context.Context, s store.SummaryInsert) (string, error) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.audit = append(rec.audit, s)
			return fmt.Sprintf("audit-%d", len(rec.audit)), nil
		},
	}, rec
}

func TestGenerateScenario(t *testing.T) {
	stub := &llm.Stub{Summary: "The Elm averages $1,550 for 803 sq ft."}
	svc, rec := newService(t, stub)

	r, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-10", r.AsOf)
	assert.Equal(t, "The Elm", r.Prospect.HellodataProperty)
	assert.Equal(t, []int{1}, prospect.SelectedBeds(r.Prospect))

	// 101 deduped to its latest row; 402 is a two-bed; 509 is stale; Gone Towers has no file.
	var elm *rollup.DisplayRow
	for i, row := range r.Display.Average {
		if row.Property == "The Elm" {
			elm = &r.Display.Average[i]
		}
	}
	require.NotNil(t, elm)
	// means 1549.67 and 802.67
	assert.Equal(t, "$1,550", elm.GrossPrice)
	assert.Equal(t, int64(803), elm.Sqft)
	assert.Equal(t, 3, elm.AvailableUnits)
	assert.True(t, elm.Internal)

	require.Len(t, r.Concessions, 1)
	assert.Equal(t, "Six weeks free", r.Concessions[0].ConcessionText)
	assert.Equal(t, "Birch Court", r.Concessions[0].Property)

	require.Len(t, r.Amenities, 2)
	assert.True(t, r.Amenities[1].Present["washer_dryer_in_unit"])
	assert.True(t, r.Amenities[0].Present["swimming_pool"])
	assert.Len(t, r.Fees, 2)

	assert.Equal(t, `The Elm averages \$1,550 for 803 sq ft.`, r.SummaryEscaped)
	assert.NotEmpty(t, r.Transcripts.Summary)
	assert.NotEmpty(t, r.Transcripts.Extraction)

	require.Len(t, rec.audit, 2)
	assert.Equal(t, store.KindExtraction, rec.audit[0].Kind)
	assert.Equal(t, store.KindSummary, rec.audit[1].Kind)
	assert.Equal(t, []string{"audit-1", "audit-2"}, r.AuditIDs)

	require.NotEmpty(t, rec.steps)
	assert.Equal(t, 100, rec.steps[len(rec.steps)-1].Percent)

	got, ok := svc.Sessions.Get(r.ID)
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestGenerateIsIdempotent(t *testing.T) {
	svc, _ := newService(t, &llm.Stub{Summary: "ok"})
	a, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	require.NoError(t, err)
	b, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	require.NoError(t, err)
	assert.Equal(t, a.Availability, b.Availability)
	assert.Equal(t, a.Display, b.Display)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGenerateErrors(t *testing.T) {
	svc, _ := newService(t, &llm.Stub{Summary: "ok"})
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty id", Request{ProspectID: ""}, prospect.ErrEmptyID},
		{"bad id", Request{ProspectID: "abc"}, prospect.ErrInvalidID},
		{"unknown id", Request{ProspectID: "0"}, prospect.ErrNotFound},
		{"inactive", Request{ProspectID: "50000005"}, prospect.ErrInactive},
		{"no preferences", Request{ProspectID: "30000003"}, ErrNoBedroomPreferences},
		{"no comps", Request{ProspectID: "40000004"}, ErrNoComparables},
		{"no availability", Request{ProspectID: "18858422", Beds: []int{4}}, ErrNoAvailability},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerateBedsOverride(t *testing.T) {
	svc, _ := newService(t, &llm.Stub{Summary: "ok"})
	r, err := svc.Generate(context.Background(), Request{ProspectID: "30000003", Beds: []int{2}})
	require.NoError(t, err)
	require.Len(t, r.Availability, 1)
	assert.Equal(t, "402", r.Availability[0].UnitName)
}

func TestGenerateRejectedExtractionArgumentsAreNotFatal(t *testing.T) {
	svc, rec := newService(t, &llm.Stub{Summary: "ok", Extraction: `{"client_sqft_min":"big"}`})
	r, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	require.NoError(t, err)
	assert.True(t, r.Extraction.Empty())
	require.NotEmpty(t, rec.audit)
	assert.NotEmpty(t, rec.audit[0].Error)
}

// extractionDown fails the note-extraction call and answers everything else.
type extractionDown struct {
	llm.Stub
}

func (c *extractionDown) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if req.ToolChoice == llm.ToolChoiceAuto {
		return llm.Response{}, &llm.ServiceError{Op: "chat", Kind: llm.ErrTransport, Raw: "502 bad gateway"}
	}
	return c.Stub.Complete(ctx, req)
}

func TestGenerateExtractionTransportFailureIsFatal(t *testing.T) {
	svc, rec := newService(t, &extractionDown{Stub: llm.Stub{Summary: "ok"}})
	r, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, llm.ErrTransport)

	var se *llm.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "502 bad gateway", se.Raw)
	assert.Equal(t, 0, svc.Sessions.Len())

	require.Len(t, rec.audit, 1)
	assert.Equal(t, store.KindExtraction, rec.audit[0].Kind)
	assert.NotEmpty(t, rec.audit[0].Error)
}

func TestGenerateSummaryFailure(t *testing.T) {
	svc, rec := newService(t, &llm.Stub{Summary: "  "})
	_, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	assert.ErrorIs(t, err, llm.ErrMalformedResponse)
	assert.Equal(t, 0, svc.Sessions.Len())

	last := rec.audit[len(rec.audit)-1]
	assert.Equal(t, store.KindSummary, last.Kind)
	assert.NotEmpty(t, last.Error)
}

func TestGenerateInternalMissingData(t *testing.T) {
	svc, rec := newService(t, &llm.Stub{Summary: "ok"})
	require.NoError(t, os.Remove(filepath.Join(rec.paths.UnitHistoryDir, "hd-elm.csv")))

	_, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	var mde *availability.MissingDataError
	require.ErrorAs(t, err, &mde)
	assert.Equal(t, "hd-elm", mde.HellodataID)
	assert.True(t, errors.Is(err, availability.ErrInternalMissingData))
}

func TestGenerateReadsPolicyPerRequest(t *testing.T) {
	svc, rec := newService(t, &llm.Stub{Summary: "ok"})
	write(t, rec.paths.UnitHistoryDir, "hd-birch.csv", fmt.Sprintf(`
property,unit_name,unit_group,sqft,gross_price,date
Birch Court,A1,1x1,700,1425,%s
Birch Court,PH,penthouse,1400,3900,%s
`, day(3), day(3)))

	policy := availability.DropMalformed
	svc.PolicyFunc = func() availability.MalformedPolicy { return policy }

	r, err := svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	require.NoError(t, err)
	for _, u := range r.Availability {
		assert.NotEqual(t, "PH", u.UnitName)
	}

	policy = availability.FailMalformed
	_, err = svc.Generate(context.Background(), Request{ProspectID: "18858422"})
	var mle *availability.MalformedLayoutError
	require.ErrorAs(t, err, &mle)
	assert.Equal(t, "hd-birch", mle.HellodataID)
}

func TestUnits(t *testing.T) {
	svc, _ := newService(t, &llm.Stub{Summary: "ok"})
	r, err := svc.Generate(context.Background(), Request{ProspectID: "18858422", Beds: []int{1, 2}})
	require.NoError(t, err)

	all, err := r.Units(nil, "")
	require.NoError(t, err)
	assert.Equal(t, ModeIndividual, all.Mode)
	assert.Len(t, all.Units, len(r.Availability))

	two, err := r.Units([]int{2}, ModeIndividual)
	require.NoError(t, err)
	require.Len(t, two.Units, 1)
	assert.Equal(t, 2, two.Units[0].Beds)

	avg, err := r.Units([]int{1}, "Average")
	require.NoError(t, err)
	assert.Nil(t, avg.Units)
	for _, row := range avg.Rollups {
		assert.Equal(t, 1, row.Beds)
	}

	_, err = r.Units(nil, "median")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSessionsEvictOldest(t *testing.T) {
	s := NewSessions(2)
	s.Put(&Report{ID: "a"})
	s.Put(&Report{ID: "b"})
	s.Put(&Report{ID: "c"})

	_, ok := s.Get("a")
	assert.False(t, ok)
	_, ok = s.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
}
