package ancillary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"leasingedge-engine/internal/domain"
	"leasingedge-engine/internal/refdata"
)

// TargetAmenities are the amenity keys reported for every comparable asset.
var TargetAmenities = []string{
	// building
	"swimming_pool", "fitness_center", "community_dog_park", "pets_allowed", "parking_garage",
	"valet_trash_service", "package_receiving", "on_site_maintenance", "controlled_access",
	"business_center", "club_house_party_room", "barbecue_grill", "hot_tub", "tennis_court",
	"electric_car_charging_station", "elevator",
	// unit
	"washer_dryer_in_unit", "air_conditioning", "dishwasher", "patio_or_balcony", "walk_in_closet",
	"granite_countertops", "quartz_countertops", "stainless_steel_appliances", "hardwood_floor",
	"high_ceilings", "kitchen_island", "fireplace", "smart_thermostat", "garbage_disposal",
}

func idSet(availability []domain.AvailabilityRow) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, r := range availability {
		ids[r.HellodataID] = struct{}{}
	}
	return ids
}

// Fees returns the fee columns of every detail row for a property with availability.
func Fees(availability []domain.AvailabilityRow, details []domain.CompDetail) []domain.FeeRow {
	ids := idSet(availability)
	var out []domain.FeeRow
	for _, d := range details {
		if _, ok := ids[d.HellodataID]; !ok {
			continue
		}
		out = append(out, domain.FeeRow{
			Asset:           d.Asset,
			HellodataID:     d.HellodataID,
			CatsMonthlyRent: toFloat(d.CatsMonthlyRent),
			CatsOneTimeFee:  toFloat(d.CatsOneTimeFee),
			CatsDeposit:     toFloat(d.CatsDeposit),
			DogsMonthlyRent: toFloat(d.DogsMonthlyRent),
			DogsOneTimeFee:  toFloat(d.DogsOneTimeFee),
			DogsDeposit:     toFloat(d.DogsDeposit),
			AdminFee:        toFloat(d.AdminFee),
			AmenityFee:      toFloat(d.AmenityFee),
			ApplicationFee:  toFloat(d.ApplicationFee),
			StorageFee:      toFloat(d.StorageFee),
		})
	}
	return out
}

func toFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// Amenities reports, per asset, whether any of its detail rows mention each
// target amenity in building or unit amenities. Assets are sorted by name.
func Amenities(availability []domain.AvailabilityRow, details []domain.CompDetail) []domain.AmenityRow {
	ids := idSet(availability)
	byAsset := make(map[string]map[string]bool)
	for _, d := range details {
		if _, ok := ids[d.HellodataID]; !ok {
			continue
		}
		present := byAsset[d.Asset]
		if present == nil {
			present = make(map[string]bool, len(TargetAmenities))
			for _, a := range TargetAmenities {
				present[a] = false
			}
			byAsset[d.Asset] = present
		}
		building, unit := ParseContainer(d.BuildingAmenities), ParseContainer(d.UnitAmenities)
		for _, a := range TargetAmenities {
			if building.Contains(a) || unit.Contains(a) {
				present[a] = true
			}
		}
	}

	out := make([]domain.AmenityRow, 0, len(byAsset))
	for asset, present := range byAsset {
		out = append(out, domain.AmenityRow{Asset: asset, Present: present})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

const dateLayout = "2006-01-02"

// Concessions returns the concessions of properties with availability whose
// validity overlaps [asOf-windowDays, asOf]. Duplicate rows are collapsed.
func Concessions(availability []domain.AvailabilityRow, records []domain.ConcessionRecord, asOf time.Time, windowDays int) []domain.Concession {
	type owner struct {
		property string
		internal bool
	}
	// One availability id can carry several property names; each pairing is kept.
	owners := make(map[string][]owner)
	seenOwner := make(map[string]map[string]bool)
	for _, r := range availability {
		if seenOwner[r.HellodataID] == nil {
			seenOwner[r.HellodataID] = make(map[string]bool)
		}
		if seenOwner[r.HellodataID][r.Property] {
			continue
		}
		seenOwner[r.HellodataID][r.Property] = true
		owners[r.HellodataID] = append(owners[r.HellodataID], owner{property: r.Property, internal: r.Internal})
	}

	asOf = refdata.DateOnly(asOf)
	from := asOf.AddDate(0, 0, -windowDays)

	var out []domain.Concession
	seen := make(map[domain.Concession]bool)
	for _, c := range records {
		props, ok := owners[c.PropertyID]
		if !ok {
			continue
		}
		if refdata.DateOnly(c.ToDate).Before(from) {
			continue
		}
		if c.FromDate != nil && refdata.DateOnly(*c.FromDate).After(asOf) {
			continue
		}
		fromStr := ""
		if c.FromDate != nil {
			fromStr = c.FromDate.Format(dateLayout)
		}
		for _, o := range props {
			row := domain.Concession{
				Property:       o.property,
				ConcessionText: c.ConcessionText,
				FromDate:       fromStr,
				ToDate:         c.ToDate.Format(dateLayout),
				Internal:       o.internal,
			}
			if seen[row] {
				continue
			}
			seen[row] = true
			out = append(out, row)
		}
	}
	return out
}
