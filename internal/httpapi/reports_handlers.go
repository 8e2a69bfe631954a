package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"leasingedge-engine/internal/events"
	"leasingedge-engine/internal/prospect"
	"leasingedge-engine/internal/refdata"
	"leasingedge-engine/internal/report"
)

type ReportsHandler struct {
	Reports  *report.Service
	Sessions *report.Sessions
	Hub      *events.Hub
}

func (h ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	for _, b := range req.Beds {
		if b < 0 || b > 4 {
			writeErr(w, r, &badParam{name: "beds", value: strconv.Itoa(b)})
			return
		}
	}
	req.RequestID = RequestIDFrom(r.Context())

	rep, err := h.Reports.Generate(r.Context(), req)
	if err != nil {
		_, code := classify(err)
		h.Hub.Emit(req.RequestID, events.TypeReportFailed, map[string]any{
			"prospect_id": req.ProspectID,
			"code":        code,
			"message":     err.Error(),
		})
		writeErr(w, r, err)
		return
	}
	h.Hub.Emit(req.RequestID, events.TypeReportDone, map[string]any{
		"report_id":   rep.ID,
		"prospect_id": rep.Prospect.ID,
	})
	WriteJSON(w, http.StatusCreated, rep)
}

// GetByPath serves /reports/{id} and /reports/{id}/units.
func (h ReportsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/reports/"), "/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		WriteError(w, r, http.StatusNotFound, "not_found", "missing report id")
		return
	}
	rep, ok := h.Sessions.Get(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "report "+id+" not found in this session")
		return
	}

	switch sub {
	case "":
		writeJSON(w, rep)
	case "units":
		q := r.URL.Query()
		beds, err := parseBeds(q["beds"])
		if err != nil {
			writeErr(w, r, err)
			return
		}
		view, err := rep.Units(beds, q.Get("mode"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, view)
	default:
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown report resource "+sub)
	}
}

type ProspectsHandler struct {
	Cache *refdata.Cache
}

func (h ProspectsHandler) Examples(w http.ResponseWriter, r *http.Request) {
	t, err := h.Cache.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := prospect.Examples(t, 10)
	if out == nil {
		out = []prospect.Example{}
	}
	writeJSON(w, out)
}

type CacheHandler struct {
	Cache *refdata.Cache
	Hub   *events.Hub
}

// Refresh drops the loaded tables and reloads them from disk.
func (h CacheHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Cache.Invalidate()
	t, err := h.Cache.Get(r.Context())
	if err != nil {
		var pe *refdata.ParseError
		if errors.As(err, &pe) || errors.Is(err, refdata.ErrMissingColumn) || errors.Is(err, refdata.ErrEmptyFile) {
			WriteError(w, r, http.StatusUnprocessableEntity, "reference_data_invalid", err.Error())
			return
		}
		writeErr(w, r, err)
		return
	}
	body := map[string]any{
		"loaded_at": t.LoadedAt,
		"as_of":     t.AsOf.Format("2006-01-02"),
		"clients":   len(t.Clients),
		"comps":     len(t.MasterComplist),
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeCacheRefreshed, body)
	writeJSON(w, body)
}
