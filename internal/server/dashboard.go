package server

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/headline-goat/ratechart/internal/dashboard"
	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/export"
	"github.com/headline-goat/ratechart/internal/render"
	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/headline-goat/ratechart/internal/stats"
	"github.com/headline-goat/ratechart/internal/store"
)

type layoutData struct {
	Title   string
	Theme   string
	CSS     template.CSS
	Content template.HTML
}

type listData struct {
	Datasets []datasetListItem
	Theme    string
}

type datasetListItem struct {
	store.DatasetInfo
	Updated string
}

type detailData struct {
	Name    string
	Source  string
	Days    int
	Range   string
	Options selection.Options
	Theme   string

	ThemeToggleURL string
	ChartURL       string
	PNGURL         string
	TooltipURL     string
	ExportBase     string
	Chart          template.HTML
	Width          int
	Height         int

	Summary           []summaryRow
	Leading           string
	Confident         bool
	ConfidencePercent float64
}

type summaryRow struct {
	Name        string
	Color       template.CSS
	Visits      string
	Conversions string
	Rate        string
	Interval    string
	Leading     bool
}

func loadPages() (*pages, error) {
	css, err := dashboard.Assets.ReadFile("assets/style.css")
	if err != nil {
		return nil, fmt.Errorf("failed to load styles: %w", err)
	}

	p := &pages{css: template.CSS(css)}
	for name, dst := range map[string]**template.Template{
		"layout.html": &p.layout,
		"list.html":   &p.list,
		"detail.html": &p.detail,
	} {
		t, err := template.ParseFS(dashboard.Templates, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		*dst = t
	}
	return p, nil
}

func (s *Server) renderDashboard(w http.ResponseWriter, title string, theme selection.Theme, content *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := content.Execute(&buf, data); err != nil {
		s.logger.Error().Err(err).Str("page", title).Msg("failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	ld := layoutData{
		Title:   title,
		Theme:   string(theme),
		CSS:     s.pages.css,
		Content: template.HTML(buf.String()),
	}

	var page bytes.Buffer
	if err := s.pages.layout.Execute(&page, ld); err != nil {
		s.logger.Error().Err(err).Msg("failed to render layout")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page.Bytes())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("logout") == "1" {
		http.SetCookie(w, &http.Cookie{
			Name:   tokenCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	list, err := s.store.ListDatasets(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list datasets")
		http.Error(w, "Failed to load datasets", http.StatusInternalServerError)
		return
	}
	s.metrics.StoredDatasets.Set(float64(len(list)))

	items := make([]datasetListItem, len(list))
	for i, info := range list {
		items[i] = datasetListItem{DatasetInfo: info, Updated: info.UpdatedAt.Format("Jan 2, 2006")}
	}

	theme, _ := selection.ParseTheme(r.URL.Query().Get("theme"))
	s.renderDashboard(w, "Datasets", theme, s.pages.list, listData{Datasets: items, Theme: string(theme)})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	name, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}

	v, err := viewFor(r, ds)
	if err != nil {
		writeSelectionError(w, err)
		return
	}
	st := v.State

	var svg bytes.Buffer
	timer := s.metrics.NewTimer(s.metrics.RenderDuration.WithLabelValues(string(render.SVG)))
	if err := render.Render(&svg, render.SVG, v); err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Msg("failed to render chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	timer.ObserveDuration()

	base := "/dashboard/datasets/" + url.PathEscape(name)
	api := "/dashboard/api/datasets/" + url.PathEscape(name)
	query := st.Query()

	pngQuery := st.Query()
	pngQuery.Set("download", "1")

	data := detailData{
		Name:    name,
		Days:    len(ds.Observations),
		Options: selection.BuildOptions(ds, st),
		Theme:   string(st.Theme),

		ThemeToggleURL: base + "?" + st.ToggleTheme().Query().Encode(),
		ChartURL:       base + "/chart.svg?" + query.Encode(),
		PNGURL:         base + "/chart.png?" + pngQuery.Encode(),
		TooltipURL:     api + "/tooltip?" + query.Encode(),
		ExportBase:     base + "/export",
		Chart:          template.HTML(svg.String()),
		Width:          v.Width,
		Height:         v.Height,
	}
	if info, err := s.store.GetDatasetInfo(r.Context(), name); err == nil {
		data.Source = info.Source
		if info.FirstDate != "" {
			data.Range = info.FirstDate + " – " + info.LastDate
		}
	}

	fillSummary(&data, ds, st.Theme)
	s.renderDashboard(w, name, st.Theme, s.pages.detail, data)
}

func fillSummary(data *detailData, ds *dataset.Dataset, theme selection.Theme) {
	res := stats.Summarize(ds)
	data.Summary = make([]summaryRow, len(res.Variations))
	for i, v := range res.Variations {
		row := summaryRow{
			Name:        v.Name,
			Color:       template.CSS(render.HexColor(render.SeriesColor(theme, i))),
			Visits:      formatCount(v.Visits),
			Conversions: formatCount(v.Conversions),
			Rate:        "N/A",
			Interval:    "N/A",
			Leading:     i == res.Leading && len(res.Variations) > 1,
		}
		if !math.IsNaN(v.Rate) {
			row.Rate = formatPercentage(v.RatePercent())
			row.Interval = fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
		}
		data.Summary[i] = row
	}

	if res.Leading >= 0 && len(res.Variations) > 1 {
		data.Leading = res.Variations[res.Leading].Name
		data.Confident = res.Confident
		data.ConfidencePercent = res.ConfidenceLevel * 100
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	s.writeChart(w, r, name, ds)
}

// writeChart renders the chart in the {format} of the route. download=1
// turns it into an attachment named chart.<format>.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, name string, ds *dataset.Dataset) {
	format, err := render.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := viewFor(r, ds)
	if err != nil {
		writeSelectionError(w, err)
		return
	}

	var buf bytes.Buffer
	timer := s.metrics.NewTimer(s.metrics.RenderDuration.WithLabelValues(string(format)))
	if err := render.Render(&buf, format, v); err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Str("format", string(format)).Msg("failed to render chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	timer.ObserveDuration()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chart.%s"`, format))
	}
	w.Write(buf.Bytes())
}

// Thumbnail size on the dataset list.
const (
	thumbWidth  = 260
	thumbHeight = 66
)

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	name, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	st, err := selection.FromQuery(r.URL.Query())
	if err != nil {
		writeSelectionError(w, err)
		return
	}
	v, err := render.NewView(ds, st, 0, 0)
	if err != nil {
		writeSelectionError(w, err)
		return
	}

	var buf bytes.Buffer
	timer := s.metrics.NewTimer(s.metrics.RenderDuration.WithLabelValues("thumbnail"))
	if err := render.Thumbnail(&buf, v, thumbWidth, thumbHeight, name); err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Msg("failed to render thumbnail")
		http.Error(w, "Failed to render thumbnail", http.StatusInternalServerError)
		return
	}
	timer.ObserveDuration()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, ds); err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Msg("failed to export dataset")
		http.Error(w, "Failed to export dataset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, safeFilename(name), format))
	w.Write(buf.Bytes())
}

func safeFilename(name string) string {
	out := []rune(name)
	for i, c := range out {
		if c == '"' || c == '/' || c == '\\' || c < 0x20 {
			out[i] = '_'
		}
	}
	return string(out)
}

func formatCount(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func formatPercentage(p float64) string {
	if math.Abs(p) < 0.005 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", p)
}
