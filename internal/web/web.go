package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"daygrid/internal/config"
	"daygrid/internal/ics"
	"daygrid/internal/layout"
	applog "daygrid/internal/log"
	"daygrid/internal/model"
	"daygrid/internal/render"
)

// Server provides the HTTP API: expanded events, layout rectangles and the
// rendered day view.
type Server struct {
	cfg      *config.Config
	debug    bool
	cacheDir string
	preview  string
	mux      *http.ServeMux

	// Expanded occurrences are cached briefly per day so repeated UI and
	// capture requests do not re-fetch and re-expand the same feeds.
	eventsMu    sync.Mutex
	eventsCache map[string]*dayCache

	// The renderer recycles its widgets and is single-goroutine by
	// contract, so rendering is serialized here.
	renderMu sync.Mutex
	renderer *render.Renderer
}

type dayCache struct {
	occurrences []model.Occurrence
	truncated   []string
	updatedAt   time.Time
}

const eventsCacheTTL = 30 * time.Second

// NewServer constructs a Server. cacheDir holds the ICS disk cache and
// previewPath is where the capture pipeline writes preview.png.
func NewServer(cfg *config.Config, cacheDir, previewPath string, debug bool) *Server {
	s := &Server{
		cfg:         cfg,
		debug:       debug,
		cacheDir:    cacheDir,
		preview:     previewPath,
		mux:         http.NewServeMux(),
		eventsCache: make(map[string]*dayCache),
		renderer:    render.New(cfg.LayoutStyle(), cfg.Width),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/layout", s.handleLayout)
	s.mux.HandleFunc("/day", s.handleDayPage)
	s.mux.HandleFunc("/day.svg", s.handleDaySVG)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware guards every endpoint except /health, which stays
// open for liveness probes.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="daygrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// requestedDay parses the date query parameter (YYYY-MM-DD) in the display
// timezone, defaulting to today.
func (s *Server) requestedDay(r *http.Request) (time.Time, error) {
	loc := resolveLocationOrLocal(s.cfg.Timezone)
	raw := r.URL.Query().Get("date")
	if raw == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return day, nil
}

// occurrencesFor returns all expanded occurrences touching the given day,
// from cache when fresh. The expansion range is padded by a day on each
// side so recurring and midnight-crossing events are not lost at the edges.
func (s *Server) occurrencesFor(ctx context.Context, day time.Time) ([]model.Occurrence, []string, error) {
	key := day.Format("2006-01-02")

	s.eventsMu.Lock()
	cached := s.eventsCache[key]
	s.eventsMu.Unlock()
	if cached != nil && time.Since(cached.updatedAt) < eventsCacheTTL {
		return cached.occurrences, cached.truncated, nil
	}

	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, src := range s.cfg.ICS {
		if src.URL == "" {
			continue
		}
		id := src.ID
		if id == "" {
			id = src.Name
		}
		if id == "" {
			id = src.URL
		}
		sources = append(sources, ics.Source{ID: id, URL: src.URL})
	}

	fetcher := ics.NewFetcher(s.cacheDir)
	results, fetchErrs := fetcher.FetchAll(ctx, sources)
	if len(fetchErrs) > 0 {
		applog.Error("one or more ICS fetches failed", fetchErrs[0], "error_count", len(fetchErrs))
	}

	parsed := make([]ics.ParsedEvent, 0)
	for _, res := range results {
		events, err := ics.Parse(res.Source, res.Body)
		if err != nil {
			applog.Error("ics parse failed", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, events...)
	}

	expanded, err := ics.Expand(parsed, ics.ExpandConfig{
		DisplayLocation: day.Location(),
		RangeStart:      day.AddDate(0, 0, -1),
		RangeEnd:        day.AddDate(0, 0, 2),
	})
	if err != nil {
		return nil, nil, err
	}

	occs := ics.SelectDay(expanded.Occurrences, day)

	s.eventsMu.Lock()
	s.eventsCache[key] = &dayCache{
		occurrences: occs,
		truncated:   expanded.Truncated,
		updatedAt:   time.Now(),
	}
	s.eventsMu.Unlock()

	return occs, expanded.Truncated, nil
}

type occurrenceDTO struct {
	SourceID    string    `json:"source_id"`
	UID         string    `json:"uid"`
	InstanceKey string    `json:"instance_key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

func toDTOs(occs []model.Occurrence) []occurrenceDTO {
	dtos := make([]occurrenceDTO, 0, len(occs))
	for _, occ := range occs {
		dtos = append(dtos, occurrenceDTO{
			SourceID:    occ.SourceID,
			UID:         occ.UID,
			InstanceKey: occ.InstanceKey,
			Summary:     occ.Summary,
			Description: occ.Description,
			Location:    occ.Location,
			AllDay:      occ.AllDay,
			Start:       occ.Start,
			End:         occ.End,
		})
	}
	return dtos
}

type eventsResponse struct {
	Date          string          `json:"date"`
	Occurrences   []occurrenceDTO `json:"occurrences"`
	TruncatedUIDs []string        `json:"truncated_uids,omitempty"`
	Timezone      string          `json:"timezone"`
}

// handleEvents returns the expanded occurrences touching one day.
//
// GET /api/events?date=2025-03-10
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	day, err := s.requestedDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	occs, truncated, err := s.occurrencesFor(r.Context(), day)
	if err != nil {
		applog.Error("events request failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Date:          day.Format("2006-01-02"),
		Occurrences:   toDTOs(occs),
		TruncatedUIDs: truncated,
		Timezone:      day.Location().String(),
	})
}

type layoutResponse struct {
	Date      string          `json:"date"`
	RowHeight float64         `json:"row_height"`
	Width     float64         `json:"width"`
	Rects     []layout.Rect   `json:"rects"`
	Timed     []occurrenceDTO `json:"timed"`
	AllDay    []occurrenceDTO `json:"all_day"`
}

// handleLayout runs one layout pass and returns the rectangles as JSON,
// index-aligned with the timed occurrence list.
//
// GET /api/layout?date=2025-03-10&width=480
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	day, err := s.requestedDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	width := s.cfg.Width
	if raw := r.URL.Query().Get("width"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid width")
			return
		}
		width = parsed
	}

	occs, _, err := s.occurrencesFor(r.Context(), day)
	if err != nil {
		applog.Error("layout request failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}

	window := s.cfg.DayWindowFor()
	window.Date = day
	style := s.cfg.LayoutStyle()

	res := layout.Layout(occs, window, style, width)
	axis := layout.NewTimeAxis(window, style)

	writeJSON(w, http.StatusOK, layoutResponse{
		Date:      day.Format("2006-01-02"),
		RowHeight: axis.RowHeight(),
		Width:     width,
		Rects:     res.Rects,
		Timed:     toDTOs(res.Timed),
		AllDay:    toDTOs(res.AllDay),
	})
}

// handleDaySVG renders the day view as a standalone SVG document.
func (s *Server) handleDaySVG(w http.ResponseWriter, r *http.Request) {
	day, err := s.requestedDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	occs, _, err := s.occurrencesFor(r.Context(), day)
	if err != nil {
		applog.Error("day render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}

	window := s.cfg.DayWindowFor()
	window.Date = day

	s.renderMu.Lock()
	svg := s.renderer.RenderDay(window, occs)
	s.renderMu.Unlock()

	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

// handleDayPage wraps the SVG in a minimal HTML page. The data-ready
// attribute is the signal the capture pipeline waits for before taking a
// screenshot.
func (s *Server) handleDayPage(w http.ResponseWriter, r *http.Request) {
	day, err := s.requestedDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	occs, _, err := s.occurrencesFor(r.Context(), day)
	if err != nil {
		applog.Error("day page failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}

	window := s.cfg.DayWindowFor()
	window.Date = day

	s.renderMu.Lock()
	svg := s.renderer.RenderDay(window, occs)
	s.renderMu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><title>daygrid %s</title><style>body{margin:0}</style></head>
<body><div data-ready="true">%s</div></body></html>
`, day.Format("2006-01-02"), svg)
}

// handlePreview serves the last captured PNG preview from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.preview)
}

// StartServer runs the HTTP server until ctx is canceled, then shuts it
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Info("http server listening", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		applog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
