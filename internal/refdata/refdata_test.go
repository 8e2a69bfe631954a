package refdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(strings.TrimLeft(body, "\n")), 0o644))
	return p
}

// fixture writes a small but complete set of reference tables.
func fixture(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		Clients: writeFile(t, dir, "clients.csv", `
client_id,client_email,client_full_name,client_status,laundry_preference,outdoor_space_preference,parking_preference,pet_preference,notes,studio_preference,onebed_preference,twobed_preference,threebed_preference,fourbed_preference,extra
18858422,ana@example.com,Ana Ruiz,Active,In unit,Balcony,Garage,Dog,"<p>Budget $1,600</p>",False,True,False,False,False,x
20000001,bo@example.com,Bo Chen,Active,,,,,,False,False,False,False,False,y
`),
		GroupAssignment: writeFile(t, dir, "group.csv", `
clientid,pms_community_id
18858422,501
20000001,
`),
		InternalRef: writeFile(t, dir, "internal_ref.csv", `
oslPropertyID,hellodata_id,hellodata_property,ParentAssetName
501.0,hd-own,The Elm,Elm Holdings
`),
		MasterComplist: writeFile(t, dir, "complist.csv", `
property,hellodata_id,comp_name
The Elm,hd-own,The Elm
The Elm,hd-ext,Birch Court
Other,hd-x,Other Place
`),
		Concessions: writeFile(t, dir, "concessions.csv", `
property_id,from_date,to_date,concession_text
hd-ext,2024-05-01,2024-06-09,One month free
hd-ext,2024-04-01,2024-05-31,Old deal
hd-own,,,No end date
`),
		CompDetails: writeFile(t, dir, "comp_details.csv", `
asset,hellodata_id,year_built,cats_monthly_rent,cats_one_time_fee,cats_deposit,dogs_monthly_rent,dogs_one_time_fee,dogs_deposit,admin_fee,amenity_fee,application_fee,storage_fee,property_quality,building_amenities,unit_amenities
Birch Court,hd-ext,1999,35,,250,45,,300,150,,50,,B+,"['Pool', 'Gym']",Dishwasher and washer/dryer
`),
		UnitHistoryDir: filepath.Join(dir, "units"),
	}
}

var asOf = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func TestLoad(t *testing.T) {
	tb, err := Load(context.Background(), fixture(t), asOf, 7)
	require.NoError(t, err)

	require.Len(t, tb.Clients, 2)
	ana := tb.Clients[0]
	assert.Equal(t, int64(18858422), ana.ID)
	assert.True(t, ana.OneBedPreference)
	assert.False(t, ana.StudioPreference)
	assert.Equal(t, "<p>Budget $1,600</p>", ana.Notes)

	// Null community ids never join.
	require.Len(t, tb.GroupAssignment, 1)
	assert.Equal(t, int64(501), tb.GroupAssignment[0].CommunityID)

	require.Len(t, tb.InternalRef, 1)
	assert.Equal(t, int64(501), tb.InternalRef[0].OSLPropertyID)

	comps := tb.CompsFor("The Elm")
	require.Len(t, comps, 2)
	assert.True(t, comps[0].Internal)
	assert.False(t, comps[1].Internal)
	assert.Equal(t, "Birch Court", comps[1].Name)

	// Only the concession ending inside the window survives the load filter.
	require.Len(t, tb.Concessions, 1)
	assert.Equal(t, "One month free", tb.Concessions[0].ConcessionText)

	require.Len(t, tb.CompDetails, 1)
	d := tb.CompDetails[0]
	require.NotNil(t, d.CatsMonthlyRent)
	assert.Equal(t, "35", d.CatsMonthlyRent.String())
	assert.Nil(t, d.CatsOneTimeFee)
	require.NotNil(t, d.YearBuilt)
	assert.Equal(t, int64(1999), *d.YearBuilt)
	require.NotNil(t, d.BuildingAmenities)
	assert.Equal(t, "['Pool', 'Gym']", *d.BuildingAmenities)
}

func TestLoadMissingColumnIsFatal(t *testing.T) {
	p := fixture(t)
	writeFile(t, filepath.Dir(p.GroupAssignment), "group.csv", "client,pms_community_id\n1,2\n")

	_, err := Load(context.Background(), p, asOf, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "clientid")
}

func TestLoadBadValueIsFatal(t *testing.T) {
	p := fixture(t)
	writeFile(t, filepath.Dir(p.Clients), "clients.csv", `
client_id,client_email,client_full_name,client_status,laundry_preference,outdoor_space_preference,parking_preference,pet_preference,notes,studio_preference,onebed_preference,twobed_preference,threebed_preference,fourbed_preference
abc,,,,,,,,,False,False,False,False,False
`)
	_, err := Load(context.Background(), p, asOf, 7)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "client_id", pe.Column)
	assert.Equal(t, 2, pe.Line)
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	p := fixture(t)
	require.NoError(t, os.Remove(p.CompDetails))

	tb, err := Load(context.Background(), p, asOf, 7)
	assert.Nil(t, tb)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnitHistory(t *testing.T) {
	p := fixture(t)
	tb, err := Load(context.Background(), p, asOf, 7)
	require.NoError(t, err)

	writeFile(t, p.UnitHistoryDir, "hd-ext.csv", `
property,unit_name,unit_group,sqft,gross_price,date
Birch Court,101,1x1,800,1500,2024-06-08
Birch Court,102,Studio,500,,2024-06-08
Birch Court,103,2x2,1100,2100.50,2024-06-09 13:00:00
`)
	rows, err := tb.UnitHistory(context.Background(), "hd-ext")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1x1", rows[0].UnitGroup)
	assert.Equal(t, "hd-ext", rows[0].HellodataID)
	assert.Equal(t, "2100.5", rows[1].GrossPrice.String())

	// The layout is not interpreted at load time.
	writeFile(t, p.UnitHistoryDir, "hd-odd.csv", "property,unit_name,unit_group,sqft,gross_price,date\nX,1,Penthouse,900,3000,2024-06-09\n")
	rows, err = tb.UnitHistory(context.Background(), "hd-odd")
	require.NoError(t, err)
	assert.Equal(t, "Penthouse", rows[0].UnitGroup)
}

func TestUnitHistoryMissingVsMalformed(t *testing.T) {
	p := fixture(t)
	tb, err := Load(context.Background(), p, asOf, 7)
	require.NoError(t, err)

	_, err = tb.UnitHistory(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNoUnitHistory)

	writeFile(t, p.UnitHistoryDir, "empty.csv", "")
	_, err = tb.UnitHistory(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrNoUnitHistory)

	writeFile(t, p.UnitHistoryDir, "header.csv", "property,unit_name,unit_group,sqft,gross_price,date\n")
	_, err = tb.UnitHistory(context.Background(), "header")
	assert.ErrorIs(t, err, ErrNoUnitHistory)

	writeFile(t, p.UnitHistoryDir, "bad.csv", "property,unit_name,unit_group,sqft,gross_price,date\nX,1,1x1,900,3000,not-a-date\n")
	_, err = tb.UnitHistory(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoUnitHistory))
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = tb.UnitHistory(context.Background(), "../clients")
	assert.ErrorIs(t, err, ErrNoUnitHistory)
}

func TestCacheCollapsesConcurrentLoads(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewCache(func(ctx context.Context) (*Tables, error) {
		calls.Add(1)
		<-release
		return &Tables{AsOf: asOf}, nil
	})

	var wg sync.WaitGroup
	results := make([]*Tables, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tb, err := c.Get(context.Background())
			assert.NoError(t, err)
			results[i] = tb
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	c.Invalidate()
	assert.False(t, c.Loaded())
	again, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, results[0], again)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheCancelledCallerDoesNotFailOthers(t *testing.T) {
	release := make(chan struct{})
	c := NewCache(func(ctx context.Context) (*Tables, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &Tables{AsOf: asOf}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx)
		first <- err
	}()
	time.Sleep(20 * time.Millisecond)

	second := make(chan *Tables, 1)
	go func() {
		tb, err := c.Get(context.Background())
		assert.NoError(t, err)
		second <- tb
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	tb := <-second
	require.NotNil(t, tb)
	assert.True(t, c.Loaded())
}

func TestCacheInvalidateDuringLoad(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewCache(func(ctx context.Context) (*Tables, error) {
		if calls.Add(1) == 1 {
			<-release
		}
		return &Tables{AsOf: asOf}, nil
	})

	done := make(chan *Tables, 1)
	go func() {
		tb, err := c.Get(context.Background())
		assert.NoError(t, err)
		done <- tb
	}()
	time.Sleep(20 * time.Millisecond)

	c.Invalidate()
	close(release)
	stale := <-done
	require.NotNil(t, stale)
	assert.False(t, c.Loaded())

	fresh, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, c.Loaded())
}

func TestCacheDoesNotKeepErrors(t *testing.T) {
	fail := true
	c := NewCache(func(ctx context.Context) (*Tables, error) {
		if fail {
			return nil, errors.New("disk on fire")
		}
		return &Tables{}, nil
	})
	_, err := c.Get(context.Background())
	assert.Error(t, err)

	fail = false
	tb, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tb)
}

func TestParseDate(t *testing.T) {
	for _, v := range []string{"2024-06-10", "2024-06-10 08:30:00", "2024-06-10T08:30:00Z", "6/10/2024"} {
		d, err := ParseDate(v)
		require.NoError(t, err, v)
		assert.Equal(t, asOf, DateOnly(d), v)
	}
	_, err := ParseDate("June 10th")
	assert.Error(t, err)
}
