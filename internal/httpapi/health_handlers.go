package httpapi

import (
	"net/http"
	"time"

	"leasingedge-engine/internal/refdata"
)

type HealthHandler struct {
	Cache *refdata.Cache
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":          true,
		"time":        time.Now().UTC().Format(time.RFC3339),
		"data_loaded": h.Cache != nil && h.Cache.Loaded(),
	})
}
