package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/dataset"
	"github.com/user/player_radar_go/internal/report"
	"github.com/user/player_radar_go/internal/service"
	"github.com/user/player_radar_go/internal/store"
)

// badRequestError marks invalid query parameters.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func statusOf(err error) int {
	var (
		nf *dataset.DatasetNotFoundError
		br *badRequestError
		le *dataset.LoadError
		ma *analysis.MissingAttributeError
		er *analysis.EmptyRangeError
	)
	switch {
	case errors.As(err, &nf), errors.Is(err, service.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.As(err, &le):
		return http.StatusInternalServerError
	case errors.As(err, &br), errors.Is(err, analysis.ErrNoCategories), errors.Is(err, analysis.ErrUnknownGroup),
		errors.As(err, &ma), errors.As(err, &er):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("[ERROR] %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func datasetParam(r *http.Request) (string, error) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || strings.TrimSpace(id) == "" {
		return "", badRequest("invalid dataset id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseSelection reads attrs, group, min_minutes and derived.
func parseSelection(q url.Values) (service.Selection, error) {
	sel := service.Selection{
		Attributes: splitList(q.Get("attrs")),
		Group:      strings.TrimSpace(q.Get("group")),
		Derived:    parseBool(q.Get("derived")),
	}
	if s := q.Get("min_minutes"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return sel, badRequest("invalid min_minutes %q", s)
		}
		sel.MinMinutes = v
	}
	return sel, nil
}

// parseOptions reads missing (gap, zero, abort), clamp and skip_empty.
func parseOptions(q url.Values, def analysis.Options) (analysis.Options, error) {
	opts := def
	switch q.Get("missing") {
	case "":
	case "gap":
		opts.Missing = analysis.MissingAsGap
	case "zero":
		opts.Missing = analysis.MissingAsZero
	case "abort":
		opts.Missing = analysis.MissingAbort
	default:
		return opts, badRequest("invalid missing policy %q", q.Get("missing"))
	}
	if q.Has("clamp") {
		opts.Clamp = analysis.NoClamp
		if parseBool(q.Get("clamp")) {
			opts.Clamp = analysis.ClampUnit
		}
	}
	if q.Has("skip_empty") {
		opts.SkipEmptyRanges = parseBool(q.Get("skip_empty"))
	}
	return opts, nil
}

// parseCompare reads a comparison request. dataset applies to both players
// unless dataset_a or dataset_b is given.
func parseCompare(r *http.Request, svc *service.Service) (service.CompareRequest, error) {
	q := r.URL.Query()
	req := service.CompareRequest{
		A: service.PlayerRef{Dataset: q.Get("dataset_a"), Name: q.Get("player_a")},
		B: service.PlayerRef{Dataset: q.Get("dataset_b"), Name: q.Get("player_b")},
	}
	if req.A.Dataset == "" {
		req.A.Dataset = q.Get("dataset")
	}
	if req.B.Dataset == "" {
		req.B.Dataset = q.Get("dataset")
	}
	if req.A.Dataset == "" || req.B.Dataset == "" {
		return req, badRequest("dataset is required")
	}
	if strings.TrimSpace(req.A.Name) == "" || strings.TrimSpace(req.B.Name) == "" {
		return req, badRequest("player_a and player_b are required")
	}

	sel, err := parseSelection(q)
	if err != nil {
		return req, err
	}
	req.Selection = sel
	opts, err := parseOptions(q, svc.Options)
	if err != nil {
		return req, err
	}
	req.Options = &opts
	return req, nil
}

// DatasetLister lists datasets imported into the database.
type DatasetLister interface {
	List(ctx context.Context) ([]store.DatasetInfo, error)
}

// ListDatasets returns the catalog followed by the imported datasets that are
// not in it. imported may be nil.
func ListDatasets(ctx context.Context, catalog *dataset.Catalog, imported DatasetLister) ([]DatasetDTO, error) {
	out := make([]DatasetDTO, 0)
	index := make(map[string]int)
	if catalog != nil {
		for _, e := range catalog.Entries {
			index[e.ID()] = len(out)
			out = append(out, DatasetDTO{ID: e.ID(), League: e.League, Year: e.Year, Source: "catalog"})
		}
	}
	if imported == nil {
		return out, nil
	}
	infos, err := imported.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list imported datasets: %w", err)
	}
	for _, info := range infos {
		if i, ok := index[info.ID]; ok {
			out[i].Imported = true
			out[i].Players = info.Players
			continue
		}
		league, year, _ := strings.Cut(info.ID, "/")
		out = append(out, DatasetDTO{ID: info.ID, League: league, Year: year, Source: "db", Imported: true, Players: info.Players})
	}
	return out, nil
}

// ListDatasetsHandler lists the catalog and the imported datasets.
func ListDatasetsHandler(catalog *dataset.Catalog, imported DatasetLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := ListDatasets(r.Context(), catalog, imported)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ListPlayersHandler lists the players of a dataset; stats=1 includes raw stats.
func ListPlayersHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := datasetParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		sel, err := parseSelection(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}
		players, err := svc.Players(r.Context(), id, sel)
		if err != nil {
			writeError(w, err)
			return
		}
		withStats := parseBool(r.URL.Query().Get("stats"))
		out := make([]PlayerDTO, len(players))
		for i, e := range players {
			out[i] = NewPlayerDTO(e, withStats)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ListAttributesHandler lists the numeric attributes of a dataset.
func ListAttributesHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := datasetParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		attrs, err := svc.Attributes(r.Context(), id, parseBool(r.URL.Query().Get("derived")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, attrs)
	}
}

// ListGroupsHandler returns the stat groups.
func ListGroupsHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Groups())
	}
}

// CompareHandler returns the radar geometry as JSON.
func CompareHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseCompare(r, svc)
		if err != nil {
			writeError(w, err)
			return
		}
		res, err := svc.Compare(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, NewComparisonDTO(res))
	}
}

// CompareSVGHandler renders the comparison as SVG; size sets the canvas side.
func CompareSVGHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseCompare(r, svc)
		if err != nil {
			writeError(w, err)
			return
		}
		size := 500
		if s := r.URL.Query().Get("size"); s != "" {
			if size, err = strconv.Atoi(s); err != nil || size <= 0 || size > 4000 {
				writeError(w, badRequest("invalid size %q", s))
				return
			}
		}
		res, err := svc.Compare(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		var buf bytes.Buffer
		if err := report.WriteRadarSVG(&buf, res.Comparison, size); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(buf.Bytes())
	}
}

// ComparePNGHandler renders the comparison chart as PNG.
func ComparePNGHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseCompare(r, svc)
		if err != nil {
			writeError(w, err)
			return
		}
		res, err := svc.Compare(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		img, err := report.CreateRadarPlot(res.Comparison, report.ComparisonTitle(res.Comparison), "png")
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}
}

// OverviewHandler returns the single-player overview as JSON, or as a PNG bar
// chart with format=png.
func OverviewHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := service.OverviewRequest{Player: service.PlayerRef{Dataset: q.Get("dataset"), Name: q.Get("player")}}
		if req.Player.Dataset == "" || strings.TrimSpace(req.Player.Name) == "" {
			writeError(w, badRequest("dataset and player are required"))
			return
		}
		sel, err := parseSelection(q)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Selection = sel
		if parseBool(q.Get("clamp")) {
			req.Clamp = analysis.ClampUnit
		}

		res, err := svc.Overview(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		if q.Get("format") == "png" {
			img, err := report.CreateOverviewPlot(res.Entity.Name, res.Items, "png")
			if err != nil {
				writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img)
			return
		}
		writeJSON(w, http.StatusOK, NewOverviewDTO(res))
	}
}
