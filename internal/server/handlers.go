package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/render"
	"github.com/headline-goat/ratechart/internal/scale"
	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/headline-goat/ratechart/internal/stats"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/headline-goat/ratechart/internal/tooltip"
)

// maxUpload bounds imported dataset documents.
const maxUpload = 10 << 20

// Chart sizes requested by clients are clamped to these bounds.
const (
	minSize   = 120
	maxWidth  = 4000
	maxHeight = 2000
)

var errInvalidSize = errors.New("invalid size")

type HealthResponse struct {
	Status        string `json:"status"`
	DatasetsCount int    `json:"datasets_count"`
	DBSizeBytes   int64  `json:"db_size_bytes,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Message: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}

	list, err := s.store.ListDatasets(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list datasets")
		return
	}
	s.metrics.StoredDatasets.Set(float64(len(list)))

	resp := HealthResponse{
		Status:        "ok",
		DatasetsCount: len(list),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if sq, ok := s.store.(*store.SQLiteStore); ok {
		var size int64
		row := sq.DB().QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err == nil {
			resp.DBSizeBytes = size
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// loadDataset resolves the {name} route variable. It writes the error
// response itself and reports false when the handler should stop.
func (s *Server) loadDataset(w http.ResponseWriter, r *http.Request) (string, *dataset.Dataset, bool) {
	name := mux.Vars(r)["name"]
	ds, err := s.store.GetDataset(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dataset %q not found", name))
		return name, nil, false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Msg("failed to load dataset")
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return name, nil, false
	}
	return name, ds, true
}

func parseSize(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w %q", errInvalidSize, raw)
	}
	if n < minSize {
		n = minSize
	}
	if n > max {
		n = max
	}
	return n, nil
}

// viewFor builds the chart view for the selection and size in the query.
func viewFor(r *http.Request, ds *dataset.Dataset) (render.View, error) {
	q := r.URL.Query()
	st, err := selection.FromQuery(q)
	if err != nil {
		return render.View{}, err
	}
	width, err := parseSize(q.Get("width"), scale.DefaultWidth, maxWidth)
	if err != nil {
		return render.View{}, err
	}
	height, err := parseSize(q.Get("height"), scale.DefaultHeight, maxHeight)
	if err != nil {
		return render.View{}, err
	}
	return render.NewView(ds, st, width, height)
}

func (s *Server) handleListAPI(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListDatasets(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list datasets")
		writeError(w, http.StatusInternalServerError, "failed to list datasets")
		return
	}
	s.metrics.StoredDatasets.Set(float64(len(list)))

	writeJSON(w, http.StatusOK, map[string]interface{}{"datasets": list})
}

func (s *Server) handleDataAPI(w http.ResponseWriter, r *http.Request) {
	_, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleImportAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	ds, err := dataset.Decode(io.LimitReader(r.Body, maxUpload))
	if err != nil {
		s.metrics.RecordImport(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	err = s.store.SaveDataset(ctx, name, source, ds)
	s.metrics.RecordImport(err)
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Msg("failed to save dataset")
		writeError(w, http.StatusInternalServerError, "failed to save dataset")
		return
	}

	info, err := s.store.GetDatasetInfo(ctx, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dataset info")
		return
	}
	s.logger.Info().Str("dataset", name).Int("observations", info.Observations).Msg("dataset imported")
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleDeleteAPI(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	err := s.store.DeleteDataset(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dataset %q not found", name))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Msg("failed to delete dataset")
		writeError(w, http.StatusInternalServerError, "failed to delete dataset")
		return
	}
	s.logger.Info().Str("dataset", name).Msg("dataset deleted")
	w.WriteHeader(http.StatusNoContent)
}

type apiPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

type apiSeries struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Color  string     `json:"color"`
	Points []apiPoint `json:"points"`
}

type seriesResponse struct {
	Variation string      `json:"variation"`
	Period    string      `json:"period"`
	Series    []apiSeries `json:"series"`
}

func (s *Server) handleSeriesAPI(w http.ResponseWriter, r *http.Request) {
	_, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	v, err := viewFor(r, ds)
	if err != nil {
		writeSelectionError(w, err)
		return
	}

	resp := seriesResponse{
		Variation: v.State.Variation.String(),
		Period:    v.State.Period.String(),
		Series:    make([]apiSeries, len(v.Series)),
	}
	for i, ser := range v.Series {
		out := apiSeries{
			ID:     ser.Variation.ID,
			Name:   v.Labels[i],
			Color:  render.HexColor(v.Colors[i]),
			Points: make([]apiPoint, len(ser.Points)),
		}
		for j, p := range ser.Points {
			out.Points[j] = apiPoint{Date: p.Date.Format(dataset.DateLayout)}
			if p.Defined() {
				val := p.Value
				out.Points[j].Value = &val
			}
		}
		resp.Series[i] = out
	}

	writeJSON(w, http.StatusOK, resp)
}

type tooltipResponse struct {
	Visible bool `json:"visible"`
	*tooltip.Tooltip
}

func (s *Server) handleTooltipAPI(w http.ResponseWriter, r *http.Request) {
	_, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	x, err := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		writeError(w, http.StatusBadRequest, "x must be a pixel offset")
		return
	}
	v, err := viewFor(r, ds)
	if err != nil {
		writeSelectionError(w, err)
		return
	}

	tt, hit := tooltip.At(v, x)
	s.metrics.RecordTooltip(hit)
	if !hit {
		writeJSON(w, http.StatusOK, tooltipResponse{})
		return
	}
	writeJSON(w, http.StatusOK, tooltipResponse{Visible: true, Tooltip: &tt})
}

type summaryResponse struct {
	*stats.Result
	Rates []*float64 `json:"rates"`
}

func (s *Server) handleSummaryAPI(w http.ResponseWriter, r *http.Request) {
	_, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	res := stats.Summarize(ds)
	resp := summaryResponse{Result: res, Rates: make([]*float64, len(res.Variations))}
	for i, v := range res.Variations {
		if !math.IsNaN(v.Rate) {
			rate := v.Rate
			resp.Rates[i] = &rate
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeSelectionError answers a failed viewFor. Bad selections and sizes
// are client errors; anything else is ours.
func writeSelectionError(w http.ResponseWriter, err error) {
	if errors.Is(err, selection.ErrUnknownVariation) || errors.Is(err, selection.ErrInvalidOption) || errors.Is(err, errInvalidSize) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to build chart")
}

