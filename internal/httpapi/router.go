package httpapi

import (
	"net/http"

	"leasingedge-engine/internal/logging"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Cache: d.Cache}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Prospects and reports
	ph := ProspectsHandler{Cache: d.Cache}
	mux.HandleFunc("/prospects/examples", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Examples,
	}))
	rh := ReportsHandler{Reports: d.Reports, Sessions: d.Sessions, Hub: d.Hub}
	mux.HandleFunc("/reports", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Create,
	}))
	mux.HandleFunc("/reports/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.GetByPath, // /reports/{id}, /reports/{id}/units
	}))

	// Audit transcripts
	ah := AuditHandler{DB: d.AuditDB}
	mux.HandleFunc("/summaries", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.List,
	}))
	mux.HandleFunc("/summaries/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.GetByPath,
	}))
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Checkpoint,
	}))

	// Reference data
	cah := CacheHandler{Cache: d.Cache, Hub: d.Hub}
	mux.HandleFunc("/cache/refresh", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: cah.Refresh,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Hub:         d.Hub,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/llm", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetLLMKey,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// Handler wraps the mux with the standard middleware stack.
func Handler(mux http.Handler, d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logging.Discard()
	}
	return Chain(mux, Cors, RequestID, Recover(log), AccessLog(log))
}
