package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"planview/internal/config"
	"planview/internal/edit"
	appLog "planview/internal/log"
	"planview/internal/record"
	"planview/internal/service"
	"planview/internal/vault"
	"planview/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("view.html").Funcs(template.FuncMap{
	"pct": func(f float64) string { return strconv.FormatFloat(f, 'f', 3, 64) + "%" },
}).ParseFS(templateFS, "templates/view.html"))

// CaptureFunc screenshots a view page into path.
type CaptureFunc func(ctx context.Context, url, path string) error

// Server exposes the views as JSON for the pointer UI and as plain HTML
// pages for screenshots.
type Server struct {
	cfg     *config.Config
	planner *service.Planner
	mux     *http.ServeMux

	// Capture is optional; without it /api/views/{name}/capture answers 501.
	Capture CaptureFunc

	// NextRefresh reports the next scheduled reload for /api/status.
	NextRefresh func() time.Time
}

func NewServer(cfg *config.Config, planner *service.Planner) *Server {
	s := &Server{
		cfg:     cfg,
		planner: planner,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in Basic Auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="planview", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

// ServeLoopback serves the routes without auth on an ephemeral 127.0.0.1
// port, for the headless browser. It returns the base URL and a stop func.
func (s *Server) ServeLoopback() (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("loopback listen: %w", err)
	}
	srv := &http.Server{Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	return "http://" + ln.Addr().String(), func() { _ = srv.Close() }, nil
}

// PageURL is the /view/{name} page under base, with month when set.
func PageURL(base, name, month string) string {
	u := base + "/view/" + url.PathEscape(name)
	if month != "" {
		u += "?month=" + url.QueryEscape(month)
	}
	return u
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/views", s.handleViews)
	s.mux.HandleFunc("GET /api/views/{name}", s.handleView)
	s.mux.HandleFunc("POST /api/views/{name}/collapse", s.handleCollapse)
	s.mux.HandleFunc("POST /api/views/{name}/gesture", s.handleGesture)
	s.mux.HandleFunc("POST /api/views/{name}/cards/{id}/move", s.handleMoveCard)
	s.mux.HandleFunc("POST /api/views/{name}/capture", s.handleCapture)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /view/{name}", s.handlePage)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type viewSummary struct {
	Name string    `json:"name"`
	Kind view.Kind `json:"kind"`
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	out := []viewSummary{}
	for _, v := range s.planner.Views() {
		out = append(out, viewSummary{Name: v.Name, Kind: v.Kind})
	}
	writeJSON(w, http.StatusOK, out)
}

// viewResponse wraps a layout with its kind so clients can dispatch on it.
type viewResponse struct {
	Kind          view.Kind `json:"kind"`
	PixelsPerUnit float64   `json:"pixels_per_unit,omitempty"`
	View          any       `json:"view"`
}

// handleView returns the layout of a view.
//
// GET /api/views/{name}?month=2024-03&width=1200
//   - month: calendar month to show (default: current)
//   - width: measured Gantt chart width, echoed back as pixels_per_unit
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	resp, err := s.buildView(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildView(r *http.Request) (viewResponse, error) {
	ctx := r.Context()
	name := r.PathValue("name")
	kind, err := s.planner.Kind(name)
	if err != nil {
		return viewResponse{}, err
	}

	resp := viewResponse{Kind: kind}
	switch kind {
	case view.KindCalendar:
		month, err := parseMonth(r.URL.Query().Get("month"), s.cfg.Location())
		if err != nil {
			return viewResponse{}, badRequest(err)
		}
		v, err := s.planner.Calendar(ctx, name, month)
		if err != nil {
			return viewResponse{}, err
		}
		resp.View = v
	case view.KindBoard:
		v, err := s.planner.Board(ctx, name)
		if err != nil {
			return viewResponse{}, err
		}
		resp.View = v
	default:
		v, err := s.planner.Gantt(ctx, name)
		if err != nil {
			return viewResponse{}, err
		}
		if width := parseFloatDefault(r.URL.Query().Get("width"), 0); width > 0 {
			resp.PixelsPerUnit = v.PixelsPerUnit(width)
		}
		resp.View = v
	}
	return resp, nil
}

type collapseRequest struct {
	Group string `json:"group"`
	// Collapsed sets the state; omitted toggles it.
	Collapsed *bool `json:"collapsed,omitempty"`
}

type collapseResponse struct {
	Group     string `json:"group"`
	Collapsed bool   `json:"collapsed"`
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	var req collapseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.Group == "" {
		s.fail(w, badRequest(errors.New("group is required")))
		return
	}

	name := r.PathValue("name")
	resp := collapseResponse{Group: req.Group}
	if req.Collapsed == nil {
		on, err := s.planner.ToggleGroup(r.Context(), name, req.Group)
		if err != nil {
			s.fail(w, err)
			return
		}
		resp.Collapsed = on
	} else {
		if err := s.planner.SetGroup(r.Context(), name, req.Group, *req.Collapsed); err != nil {
			s.fail(w, err)
			return
		}
		resp.Collapsed = *req.Collapsed
	}
	writeJSON(w, http.StatusOK, resp)
}

type gestureRequest struct {
	ItemID        string  `json:"item_id"`
	Kind          string  `json:"kind"`
	PixelDelta    float64 `json:"pixel_delta"`
	PixelsPerUnit float64 `json:"pixels_per_unit"`
	Width         float64 `json:"width"`
	Commit        *bool   `json:"commit,omitempty"`
}

// handleGesture previews or commits a drag. It commits unless the body or
// the query says commit=false.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	commit := true
	if req.Commit != nil {
		commit = *req.Commit
	}
	if q := r.URL.Query().Get("commit"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			s.fail(w, badRequest(fmt.Errorf("commit: %w", err)))
			return
		}
		commit = b
	}

	res, err := s.planner.Gesture(r.Context(), r.PathValue("name"), service.GestureRequest{
		ItemID:        req.ItemID,
		Kind:          req.Kind,
		PixelDelta:    req.PixelDelta,
		PixelsPerUnit: req.PixelsPerUnit,
		Width:         req.Width,
		Commit:        commit,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column string `json:"column"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	write, err := s.planner.MoveCard(r.Context(), r.PathValue("name"), r.PathValue("id"), req.Column)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, write)
}

type historyEntry struct {
	GestureID   string    `json:"gesture_id"`
	View        string    `json:"view"`
	ItemID      string    `json:"item_id"`
	Ref         string    `json:"ref"`
	Property    string    `json:"property"`
	Value       string    `json:"value"`
	CommittedAt time.Time `json:"committed_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := parseIntDefault(r.URL.Query().Get("n"), 50)
	if n <= 0 {
		n = 50
	}
	entries, err := s.planner.History(r.Context(), n)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			GestureID:   e.GestureID,
			View:        e.View,
			ItemID:      e.ItemID,
			Ref:         e.Ref,
			Property:    e.Property,
			Value:       e.Value,
			CommittedAt: e.CommittedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.Refresh(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	snap := s.planner.Snapshots.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"records":   len(snap.Records),
		"loaded_at": snap.LoadedAt,
	})
}

type statusResponse struct {
	Records     int        `json:"records"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	NextRefresh *time.Time `json:"next_refresh,omitempty"`
}

// handleStatus reports the snapshot age, the last refresh error and the next
// scheduled refresh.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.planner.Snapshots.Current()
	out := statusResponse{Records: len(snap.Records)}
	if !snap.LoadedAt.IsZero() {
		at := snap.LoadedAt
		out.LoadedAt = &at
	}
	if err := s.planner.Snapshots.LastError(); err != nil {
		out.LastError = err.Error()
	}
	if s.NextRefresh != nil {
		if next := s.NextRefresh(); !next.IsZero() {
			out.NextRefresh = &next
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// pageData feeds templates/view.html. Exactly one of the views is set.
type pageData struct {
	Title    string
	Gantt    *view.GanttView
	Calendar *view.CalendarView
	Board    *view.BoardView
}

// handlePage renders a static HTML page of a view. The root element carries
// data-ready="true" so the headless capture knows rendering is done.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	resp, err := s.buildView(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	data := pageData{Title: r.PathValue("name")}
	switch v := resp.View.(type) {
	case view.GanttView:
		data.Gantt = &v
	case view.CalendarView:
		data.Calendar = &v
	case view.BoardView:
		data.Board = &v
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		appLog.Error("failed to render page", err, "view", data.Title)
	}
}

func (s *Server) previewPath(name string) string {
	return filepath.Join(s.cfg.Path(s.cfg.CacheDir), "preview-"+name+".png")
}

// handleCapture screenshots /view/{name} through a loopback copy of the routes.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if s.Capture == nil {
		writeError(w, http.StatusNotImplemented, "capture is not configured")
		return
	}
	name := r.PathValue("name")
	if _, err := s.planner.Kind(name); err != nil {
		s.fail(w, err)
		return
	}

	path := s.previewPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.fail(w, err)
		return
	}
	base, stop, err := s.ServeLoopback()
	if err != nil {
		s.fail(w, err)
		return
	}
	defer stop()

	if err := s.Capture(r.Context(), PageURL(base, name, r.URL.Query().Get("month")), path); err != nil {
		appLog.Error("capture failed", err, "view", name)
		writeError(w, http.StatusBadGateway, "capture failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"preview": "/preview.png?view=" + name})
}

// handlePreview serves the last captured PNG of ?view=name.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("view")
	if _, err := s.planner.Kind(name); err != nil {
		s.fail(w, err)
		return
	}
	http.ServeFile(w, r, s.previewPath(name))
}

type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err: err} }

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var reqErr requestError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, service.ErrWrongKind),
		errors.Is(err, edit.ErrUnknownGesture):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownView),
		errors.Is(err, service.ErrUnknownItem),
		errors.Is(err, vault.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, record.ErrReadOnly):
		status = http.StatusForbidden
	case errors.Is(err, edit.ErrCommitInFlight):
		status = http.StatusConflict
	case errors.Is(err, edit.ErrInvertedRange),
		errors.Is(err, edit.ErrNotEditable):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		appLog.Error("request failed", err)
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid JSON body: %w", err))
	}
	return nil
}

func parseMonth(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("month must be YYYY-MM: %w", err)
	}
	return t, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
