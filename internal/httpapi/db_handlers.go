package httpapi

import (
	"database/sql"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"leasingedge-engine/internal/prospect"
	"leasingedge-engine/internal/store"
)

// AuditHandler serves the stored model transcripts.
type AuditHandler struct {
	DB *sql.DB
}

var errAuditDisabled = errors.New("audit store is disabled")

func (h AuditHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.DB == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "audit_disabled", errAuditDisabled.Error())
		return false
	}
	return true
}

func (h AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	q := r.URL.Query()
	var opts store.ListSummariesOpts
	if raw := q.Get("prospect_id"); raw != "" {
		id, err := prospect.ParseID(raw)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		opts.ProspectID = id
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErr(w, r, &badParam{name: "limit", value: raw})
			return
		}
		opts.Limit = n
	}

	out, err := store.ListSummaries(r.Context(), h.DB, opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if out == nil {
		out = []store.Summary{}
	}
	writeJSON(w, out)
}

// GetByPath expects /summaries/{id}.
func (h AuditHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/summaries/"), "/")
	if id == "" {
		WriteError(w, r, http.StatusNotFound, "not_found", "missing summary id")
		return
	}
	s, err := store.GetSummary(r.Context(), h.DB, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, s)
}

// Checkpoint folds the WAL back into the audit database. Localhost only.
func (h AuditHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host != "127.0.0.1" && host != "::1" && host != "localhost" {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	if _, err := h.DB.ExecContext(r.Context(), `PRAGMA wal_checkpoint(FULL);`); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
