package refdata

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"leasingedge-engine/internal/config"
	"leasingedge-engine/internal/domain"
)

// Paths locates the reference tables on disk.
type Paths struct {
	Clients         string
	GroupAssignment string
	InternalRef     string
	MasterComplist  string
	Concessions     string
	CompDetails     string
	UnitHistoryDir  string
}

func PathsFromConfig(cfg config.Config) Paths {
	return Paths{
		Clients:         cfg.ResolvePath(cfg.Data.Clients),
		GroupAssignment: cfg.ResolvePath(cfg.Data.GroupAssignment),
		InternalRef:     cfg.ResolvePath(cfg.Data.InternalRef),
		MasterComplist:  cfg.ResolvePath(cfg.Data.MasterComplist),
		Concessions:     cfg.ResolvePath(cfg.Data.Concessions),
		CompDetails:     cfg.ResolvePath(cfg.Data.CompDetails),
		UnitHistoryDir:  cfg.ResolvePath(cfg.Data.UnitHistoryDir),
	}
}

// Tables is the immutable reference data for one session.
type Tables struct {
	Clients         []domain.Prospect
	GroupAssignment []domain.GroupAssignment
	InternalRef     []domain.PropertyRef
	MasterComplist  []domain.Comp
	Concessions     []domain.ConcessionRecord
	CompDetails     []domain.CompDetail

	AsOf       time.Time
	WindowDays int
	LoadedAt   time.Time

	unitDir  string
	internal map[string]struct{}
}

// IsInternal reports whether a market-data id belongs to an internally managed property.
func (t *Tables) IsInternal(hellodataID string) bool {
	if t.internal == nil {
		for _, r := range t.InternalRef {
			if r.HellodataID != "" && r.HellodataID == hellodataID {
				return true
			}
		}
		return false
	}
	_, ok := t.internal[hellodataID]
	return ok
}

// CompsFor returns the comparable set of a subject property in file order.
func (t *Tables) CompsFor(property string) []domain.Comp {
	var out []domain.Comp
	for _, c := range t.MasterComplist {
		if c.Property == property {
			out = append(out, c)
		}
	}
	return out
}

// WindowStart is the first calendar day inside the recency window.
func (t *Tables) WindowStart() time.Time {
	return t.AsOf.AddDate(0, 0, -t.WindowDays)
}

// Load reads every reference table. Any failure aborts the whole load.
func Load(ctx context.Context, p Paths, asOf time.Time, windowDays int) (*Tables, error) {
	t := &Tables{
		AsOf:       DateOnly(asOf),
		WindowDays: windowDays,
		LoadedAt:   time.Now(),
		unitDir:    p.UnitHistoryDir,
	}

	g, ctx := errgroup.WithContext(ctx)
	load := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			return nil
		})
	}

	load("clients", func() (err error) { t.Clients, err = loadClients(p.Clients); return })
	load("group assignment", func() (err error) { t.GroupAssignment, err = loadGroupAssignment(p.GroupAssignment); return })
	load("internal reference", func() (err error) { t.InternalRef, err = loadInternalRef(p.InternalRef); return })
	load("master comp list", func() (err error) { t.MasterComplist, err = loadComplist(p.MasterComplist); return })
	load("concessions", func() (err error) {
		t.Concessions, err = loadConcessions(p.Concessions, t.WindowStart())
		return
	})
	load("comp details", func() (err error) { t.CompDetails, err = loadCompDetails(p.CompDetails); return })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.internal = make(map[string]struct{}, len(t.InternalRef))
	for _, r := range t.InternalRef {
		if r.HellodataID != "" {
			t.internal[r.HellodataID] = struct{}{}
		}
	}
	for i := range t.MasterComplist {
		t.MasterComplist[i].Internal = t.IsInternal(t.MasterComplist[i].HellodataID)
	}
	return t, nil
}

func loadClients(path string) ([]domain.Prospect, error) {
	tb, err := readTable(path, []string{
		"client_id", "client_email", "client_full_name", "client_status",
		"laundry_preference", "outdoor_space_preference", "parking_preference", "pet_preference",
		"notes", "studio_preference", "onebed_preference", "twobed_preference",
		"threebed_preference", "fourbed_preference",
	}, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Prospect, 0, len(tb.rows))
	err = tb.each(func(c *cursor) error {
		out = append(out, domain.Prospect{
			ID:                     c.int("client_id"),
			Email:                  c.str("client_email"),
			FullName:               c.str("client_full_name"),
			Status:                 c.str("client_status"),
			LaundryPreference:      c.str("laundry_preference"),
			OutdoorSpacePreference: c.str("outdoor_space_preference"),
			ParkingPreference:      c.str("parking_preference"),
			PetPreference:          c.str("pet_preference"),
			Notes:                  c.str("notes"),
			StudioPreference:       c.bool("studio_preference"),
			OneBedPreference:       c.bool("onebed_preference"),
			TwoBedPreference:       c.bool("twobed_preference"),
			ThreeBedPreference:     c.bool("threebed_preference"),
			FourBedPreference:      c.bool("fourbed_preference"),
		})
		return nil
	})
	return out, err
}

// loadGroupAssignment skips rows with a null key; they can never join.
func loadGroupAssignment(path string) ([]domain.GroupAssignment, error) {
	tb, err := readTable(path, []string{"clientid", "pms_community_id"}, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.GroupAssignment
	err = tb.each(func(c *cursor) error {
		client, community := c.optInt("clientid"), c.optInt("pms_community_id")
		if client != nil && community != nil {
			out = append(out, domain.GroupAssignment{ClientID: *client, CommunityID: *community})
		}
		return nil
	})
	return out, err
}

func loadInternalRef(path string) ([]domain.PropertyRef, error) {
	tb, err := readTable(path, []string{"oslPropertyID", "hellodata_id", "hellodata_property", "ParentAssetName"}, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.PropertyRef
	err = tb.each(func(c *cursor) error {
		id := c.optInt("oslPropertyID")
		if id == nil {
			return nil
		}
		out = append(out, domain.PropertyRef{
			OSLPropertyID:     *id,
			HellodataID:       c.str("hellodata_id"),
			HellodataProperty: c.str("hellodata_property"),
			ParentAssetName:   c.str("ParentAssetName"),
		})
		return nil
	})
	return out, err
}

func loadComplist(path string) ([]domain.Comp, error) {
	tb, err := readTable(path, []string{"property", "hellodata_id"}, []string{"comp_name"})
	if err != nil {
		return nil, err
	}
	var out []domain.Comp
	err = tb.each(func(c *cursor) error {
		out = append(out, domain.Comp{
			Property:    c.str("property"),
			HellodataID: c.str("hellodata_id"),
			Name:        c.str("comp_name"),
		})
		return nil
	})
	return out, err
}

// loadConcessions keeps only concessions still valid on or after since.
// A missing end date never satisfies the cutoff.
func loadConcessions(path string, since time.Time) ([]domain.ConcessionRecord, error) {
	tb, err := readTable(path, []string{"property_id", "from_date", "to_date", "concession_text"}, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.ConcessionRecord
	err = tb.each(func(c *cursor) error {
		from, to := c.optDate("from_date"), c.optDate("to_date")
		if to == nil || DateOnly(*to).Before(since) {
			return nil
		}
		out = append(out, domain.ConcessionRecord{
			PropertyID:     c.str("property_id"),
			FromDate:       from,
			ToDate:         *to,
			ConcessionText: c.str("concession_text"),
		})
		return nil
	})
	return out, err
}

func loadCompDetails(path string) ([]domain.CompDetail, error) {
	tb, err := readTable(path, []string{
		"asset", "hellodata_id", "year_built",
		"cats_monthly_rent", "cats_one_time_fee", "cats_deposit",
		"dogs_monthly_rent", "dogs_one_time_fee", "dogs_deposit",
		"admin_fee", "amenity_fee", "application_fee", "storage_fee",
		"property_quality", "building_amenities", "unit_amenities",
	}, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.CompDetail
	err = tb.each(func(c *cursor) error {
		out = append(out, domain.CompDetail{
			Asset:             c.str("asset"),
			HellodataID:       c.str("hellodata_id"),
			YearBuilt:         c.optInt("year_built"),
			CatsMonthlyRent:   c.optDecimal("cats_monthly_rent"),
			CatsOneTimeFee:    c.optDecimal("cats_one_time_fee"),
			CatsDeposit:       c.optDecimal("cats_deposit"),
			DogsMonthlyRent:   c.optDecimal("dogs_monthly_rent"),
			DogsOneTimeFee:    c.optDecimal("dogs_one_time_fee"),
			DogsDeposit:       c.optDecimal("dogs_deposit"),
			AdminFee:          c.optDecimal("admin_fee"),
			AmenityFee:        c.optDecimal("amenity_fee"),
			ApplicationFee:    c.optDecimal("application_fee"),
			StorageFee:        c.optDecimal("storage_fee"),
			PropertyQuality:   c.str("property_quality"),
			BuildingAmenities: c.optStr("building_amenities"),
			UnitAmenities:     c.optStr("unit_amenities"),
		})
		return nil
	})
	return out, err
}
