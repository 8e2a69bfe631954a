package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"leasingedge-engine/internal/ancillary"
	"leasingedge-engine/internal/availability"
	"leasingedge-engine/internal/events"
	"leasingedge-engine/internal/narrative"
	"leasingedge-engine/internal/prospect"
	"leasingedge-engine/internal/refdata"
	"leasingedge-engine/internal/rollup"
	"leasingedge-engine/internal/store"
)

// AuditFunc persists one model exchange and returns its id.
type AuditFunc func(ctx context.Context, rec store.SummaryInsert) (string, error)

type Request struct {
	ProspectID string `json:"prospect_id"`
	// Beds overrides the prospect's bedroom preferences when non-empty.
	Beds      []int  `json:"beds"`
	RequestID string `json:"-"`
}

type Service struct {
	Tables    func(ctx context.Context) (*refdata.Tables, error)
	Narrative *narrative.Generator
	Policy    availability.MalformedPolicy
	Sessions  *Sessions

	// Optional.
	// PolicyFunc, when set, is read on every Generate and wins over Policy.
	PolicyFunc func() availability.MalformedPolicy
	Audit      AuditFunc
	Progress func(reqID string, p events.Progress)
	Log      *slog.Logger
}

func (s *Service) progress(req Request, id int64, step string, pct int) {
	if s.Progress != nil {
		s.Progress(req.RequestID, events.Progress{ProspectID: id, Step: step, Percent: pct})
	}
}

func (s *Service) policy() availability.MalformedPolicy {
	if s.PolicyFunc != nil {
		return s.PolicyFunc()
	}
	return s.Policy
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// Generate runs the full pipeline for one prospect and stores the report in
// the session.
func (s *Service) Generate(ctx context.Context, req Request) (*Report, error) {
	log := s.logger()

	id, err := prospect.ParseID(req.ProspectID)
	if err != nil {
		return nil, err
	}
	s.progress(req, id, "loading reference data", 0)
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}

	p, err := prospect.Resolve(tables, id)
	if err != nil {
		return nil, err
	}

	r := &Report{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		AsOf:      tables.AsOf.Format("2006-01-02"),
	}

	s.progress(req, id, "reading prospect notes", 5)
	ex, exTranscript, err := s.Narrative.ExtractNotes(ctx, p)
	r.Transcripts.Extraction = exTranscript
	if exTranscript != nil {
		s.audit(ctx, r, store.SummaryInsert{
			ReportID: r.ID, ProspectID: id, Kind: store.KindExtraction, AsOf: r.AsOf,
			Transcript: exTranscript, Error: errString(err),
		})
	}
	if err != nil {
		// Unusable tool arguments only cost the note hints; a failed call ends the request.
		if !errors.Is(err, narrative.ErrExtractionArguments) {
			return nil, fmt.Errorf("note extraction: %w", err)
		}
		log.Warn("note extraction arguments rejected", "prospect", id, "err", err)
		ex = prospect.Extraction{}
	}
	r.Extraction = ex
	p = prospect.MergeExtracted(p, ex)

	if len(req.Beds) > 0 {
		p = prospect.WithBedroomPreferences(p, req.Beds)
	}
	r.Prospect = p
	if !prospect.HasBedroomPreferences(p) {
		return nil, fmt.Errorf("prospect %d: %w", id, ErrNoBedroomPreferences)
	}

	s.progress(req, id, "loading property comparisons", 10)
	comps := tables.CompsFor(p.HellodataProperty)
	if len(comps) == 0 {
		return nil, fmt.Errorf("%s: %w", p.HellodataProperty, ErrNoComparables)
	}

	s.progress(req, id, "processing unit availability", 30)
	agg := &availability.Aggregator{
		Source:     tables,
		AsOf:       tables.AsOf,
		WindowDays: tables.WindowDays,
		Policy:     s.policy(),
		Log:        log,
	}
	rows, err := agg.Aggregate(ctx, comps, p)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("prospect %d beds %v: %w", id, prospect.SelectedBeds(p), ErrNoAvailability)
	}
	r.Availability = rows

	s.progress(req, id, "gathering concessions", 50)
	r.Concessions = ancillary.Concessions(rows, tables.Concessions, tables.AsOf, tables.WindowDays)
	s.progress(req, id, "processing amenities", 65)
	r.Amenities = ancillary.Amenities(rows, tables.CompDetails)
	s.progress(req, id, "calculating fees", 75)
	r.Fees = ancillary.Fees(rows, tables.CompDetails)

	s.progress(req, id, "computing rollups", 85)
	r.Views, err = rollup.ComputeViews(rows)
	if err != nil {
		return nil, err
	}
	r.Display = r.Views.Display()

	s.progress(req, id, "writing market summary", 95)
	res, err := s.Narrative.Summarize(ctx, narrative.Input{
		Views:       r.Views,
		Concessions: r.Concessions,
		Amenities:   r.Amenities,
		Fees:        r.Fees,
		Prospect:    p,
	})
	r.Transcripts.Summary = res.Transcript
	if res.Transcript != nil {
		s.audit(ctx, r, store.SummaryInsert{
			ReportID: r.ID, ProspectID: id, Kind: store.KindSummary, Model: res.Model, AsOf: r.AsOf,
			Transcript: res.Transcript, Summary: res.Summary, Error: errString(err),
		})
	}
	if err != nil {
		return nil, err
	}
	r.Summary = res.Summary
	r.SummaryEscaped = res.SummaryEscaped
	r.Model = res.Model

	s.progress(req, id, "done", 100)
	if s.Sessions != nil {
		s.Sessions.Put(r)
	}
	log.Info("report generated", "report", r.ID, "prospect", id, "units", len(rows), "comps", len(comps))
	return r, nil
}

// audit failures never fail the report.
func (s *Service) audit(ctx context.Context, r *Report, rec store.SummaryInsert) {
	if s.Audit == nil {
		return
	}
	auditID, err := s.Audit(context.WithoutCancel(ctx), rec)
	if err != nil {
		s.logger().Warn("audit write failed", "report", r.ID, "kind", rec.Kind, "err", err)
		return
	}
	r.AuditIDs = append(r.AuditIDs, auditID)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
