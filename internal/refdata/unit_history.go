package refdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"leasingedge-engine/internal/domain"
)

// ErrNoUnitHistory means a comp has no usable listing history: the file is
// absent, empty, or has a header and no rows.
var ErrNoUnitHistory = errors.New("no unit history")

var unitHistoryColumns = []string{"property", "unit_name", "unit_group", "sqft", "gross_price", "date"}

// UnitHistory reads <unit_history_dir>/<id>.csv. Layout codes are returned raw.
// Rows with an empty price or size carry nothing to aggregate and are skipped.
func (t *Tables) UnitHistory(ctx context.Context, hellodataID string) ([]domain.UnitObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(hellodataID)
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("unit history %q: %w", hellodataID, ErrNoUnitHistory)
	}
	path := filepath.Join(t.unitDir, id+".csv")

	tb, err := readTable(path, unitHistoryColumns, nil)
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrEmptyFile):
		return nil, fmt.Errorf("unit history %s: %w", id, ErrNoUnitHistory)
	case err != nil:
		return nil, err
	}
	if len(tb.rows) == 0 {
		return nil, fmt.Errorf("unit history %s: %w", id, ErrNoUnitHistory)
	}

	out := make([]domain.UnitObservation, 0, len(tb.rows))
	err = tb.each(func(c *cursor) error {
		sqft, price, date := c.optDecimal("sqft"), c.optDecimal("gross_price"), c.optDate("date")
		if c.err != nil {
			return nil
		}
		if sqft == nil || price == nil || date == nil {
			return nil
		}
		out = append(out, domain.UnitObservation{
			HellodataID: id,
			Property:    c.str("property"),
			UnitName:    c.str("unit_name"),
			UnitGroup:   c.str("unit_group"),
			Sqft:        *sqft,
			GrossPrice:  *price,
			Date:        *date,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
