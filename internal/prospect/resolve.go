package prospect

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"leasingedge-engine/internal/domain"
	"leasingedge-engine/internal/refdata"
)

var (
	ErrEmptyID   = errors.New("prospect id is empty")
	ErrInvalidID = errors.New("prospect id must be a non-negative integer")
	ErrNotFound  = errors.New("prospect not found")
	// ErrInactive means the prospect exists but is not assigned to a
	// community that maps to a tracked property.
	ErrInactive = errors.New("prospect has no active property assignment")
)

// ParseID validates a raw identifier before any lookup.
func ParseID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmptyID
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q: %w", raw, ErrInvalidID)
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidID)
	}
	return id, nil
}

// Resolve finds a prospect and joins it to its community and property.
// The first match in file order wins at every step.
func Resolve(t *refdata.Tables, id int64) (domain.Prospect, error) {
	var p *domain.Prospect
	for i := range t.Clients {
		if t.Clients[i].ID == id {
			p = &t.Clients[i]
			break
		}
	}
	if p == nil {
		return domain.Prospect{}, fmt.Errorf("prospect %d: %w", id, ErrNotFound)
	}
	out := *p

	for _, ga := range t.GroupAssignment {
		if ga.ClientID != id {
			continue
		}
		for _, ref := range t.InternalRef {
			if ref.OSLPropertyID == ga.CommunityID {
				out.CommunityID = ga.CommunityID
				out.HellodataID = ref.HellodataID
				out.HellodataProperty = ref.HellodataProperty
				out.ParentAssetName = ref.ParentAssetName
				return out, nil
			}
		}
	}
	return domain.Prospect{}, fmt.Errorf("prospect %d: %w", id, ErrInactive)
}

// Example is a resolvable prospect offered as a starting point.
type Example struct {
	ID              int64  `json:"client_id"`
	FullName        string `json:"client_full_name"`
	ParentAssetName string `json:"ParentAssetName"`
}

// Examples lists prospects that resolve to a property, newest id first.
func Examples(t *refdata.Tables, limit int) []Example {
	seen := make(map[int64]bool)
	var out []Example
	for _, c := range t.Clients {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		p, err := Resolve(t, c.ID)
		if err != nil {
			continue
		}
		out = append(out, Example{ID: p.ID, FullName: p.FullName, ParentAssetName: p.ParentAssetName})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
