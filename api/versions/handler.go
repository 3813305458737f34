// Package versions exposes stored assignment versions over HTTP.
package versions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/berthplan/api/respond"
	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/occupancy"
	"github.com/kilianp07/berthplan/core/validate"
	"github.com/kilianp07/berthplan/pkg/chart"
	"github.com/kilianp07/berthplan/pkg/export"
)

// Latest resolves to the most recent version wherever an id is expected.
const Latest = "latest"

// Reader is the read side of the assignment store.
type Reader interface {
	ListVersions(ctx context.Context) ([]model.VersionSummary, error)
	GetVersion(ctx context.Context, versionID string) (model.Version, error)
	ReferenceData(ctx context.Context) (model.ReferenceData, error)
}

// Options configures the handler.
type Options struct {
	MinGapM  float64
	Location *time.Location
	Log      logger.Logger
}

type handler struct {
	store Reader
	opts  Options
	log   logger.Logger
}

// NewHandler serves:
//
//	GET /api/versions
//	GET /api/versions/{id}?from=&to=&berths=
//	GET /api/versions/{id}/violations
//	GET /api/versions/{id}/export?format=csv|json
//	GET /api/versions/{id}/occupancy?from=&to=&format=json|html
//	GET /api/versions/{id}/diff/{other}
func NewHandler(store Reader, opts Options) http.Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	h := &handler{store: store, opts: opts, log: logger.OrNop(opts.Log)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/versions", h.list)
	mux.HandleFunc("GET /api/versions/{id}", h.get)
	mux.HandleFunc("GET /api/versions/{id}/violations", h.violations)
	mux.HandleFunc("GET /api/versions/{id}/export", h.export)
	mux.HandleFunc("GET /api/versions/{id}/occupancy", h.occupancy)
	mux.HandleFunc("GET /api/versions/{id}/diff/{other}", h.diff)
	return mux
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	vs, err := h.store.ListVersions(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if vs == nil {
		vs = []model.VersionSummary{}
	}
	respond.JSON(w, http.StatusOK, vs)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.version(r, r.PathValue("id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	scope, err := parseScope(r, h.opts.Location)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	v.Rows = assignment.InScope(v.Rows, scope)
	respond.JSON(w, http.StatusOK, v)
}

type violationsBody struct {
	VersionID string          `json:"version_id"`
	Count     int             `json:"count"`
	Report    validate.Report `json:"report"`
	Messages  []string        `json:"messages"`
}

func (h *handler) violations(w http.ResponseWriter, r *http.Request) {
	v, err := h.version(r, r.PathValue("id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	ref, err := h.store.ReferenceData(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var refp *model.ReferenceData
	if len(ref.Berths) > 0 {
		refp = &ref
	}
	rep := validate.Check(v.Rows, h.opts.MinGapM, refp)
	respond.JSON(w, http.StatusOK, violationsBody{VersionID: v.ID, Count: rep.Len(), Report: rep, Messages: rep.Messages()})
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	v, err := h.version(r, r.PathValue("id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		format = "csv"
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		respond.Error(w, h.log, fmt.Errorf("%w: unknown format %q", respond.ErrBadRequest, format))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("version-%s.%s", v.Summary().ShortID(), format)))
	if err := export.Write(w, format, v.Rows, h.opts.Location); err != nil {
		h.log.Errorf("export %s: %v", v.ID, err)
	}
}

func (h *handler) occupancy(w http.ResponseWriter, r *http.Request) {
	v, err := h.version(r, r.PathValue("id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	scope, err := parseScope(r, h.opts.Location)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	from, to := scope.From, scope.To
	if from.IsZero() || to.IsZero() {
		from, to = span(v.Rows)
	}
	ref, err := h.store.ReferenceData(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	sum, err := occupancy.Compute(v.Rows, from, to, &ref)
	if err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", respond.ErrBadRequest, err))
		return
	}
	if r.URL.Query().Get("format") == "html" {
		page, err := chart.UtilisationHTML(sum, "Berth utilisation "+v.Summary().ShortID())
		if err != nil {
			respond.Error(w, h.log, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
		return
	}
	respond.JSON(w, http.StatusOK, sum)
}

type diffBody struct {
	From    string              `json:"from"`
	To      string              `json:"to"`
	Changes []assignment.Change `json:"changes"`
}

func (h *handler) diff(w http.ResponseWriter, r *http.Request) {
	a, err := h.version(r, r.PathValue("id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	b, err := h.version(r, r.PathValue("other"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	changes := assignment.Compare(a.Rows, b.Rows)
	if changes == nil {
		changes = []assignment.Change{}
	}
	respond.JSON(w, http.StatusOK, diffBody{From: a.ID, To: b.ID, Changes: changes})
}

func (h *handler) version(r *http.Request, id string) (model.Version, error) {
	if id == Latest {
		vs, err := h.store.ListVersions(r.Context())
		if err != nil {
			return model.Version{}, err
		}
		if len(vs) == 0 {
			return model.Version{}, &assignment.NotFoundError{VersionID: Latest}
		}
		id = vs[0].ID
	}
	return h.store.GetVersion(r.Context(), id)
}

func parseScope(r *http.Request, loc *time.Location) (assignment.Scope, error) {
	q := r.URL.Query()
	var s assignment.Scope
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"from", &s.From}, {"to", &s.To}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		t, err := parseTime(raw, loc)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", respond.ErrBadRequest, p.key, err)
		}
		*p.dst = t
	}
	if !s.From.IsZero() && !s.To.IsZero() && !s.To.After(s.From) {
		return s, fmt.Errorf("%w: to must be after from", respond.ErrBadRequest)
	}
	s.Berths = assignment.ParseBerths(q.Get("berths"))
	return s, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised time " + s)
}

func span(rows []model.AssignmentRow) (from, to time.Time) {
	for i, r := range rows {
		if i == 0 || r.ETA.Before(from) {
			from = r.ETA
		}
		if i == 0 || r.ETD.After(to) {
			to = r.ETD
		}
	}
	return from, to
}
