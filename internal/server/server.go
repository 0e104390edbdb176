package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/playground/internal/catalog"
	"github.com/yourorg/playground/internal/codegen"
	"github.com/yourorg/playground/internal/config"
	"github.com/yourorg/playground/internal/docs"
	"github.com/yourorg/playground/internal/executor"
	"github.com/yourorg/playground/internal/store"
	"github.com/yourorg/playground/internal/translator"
	"github.com/yourorg/playground/pkg/types"
)

var (
	//go:embed ui.html
	uiHTML string

	uiTemplate = template.Must(template.New("ui").Parse(uiHTML))
)

const (
	maxUploadMemory     = 32 << 20
	defaultHistoryLimit = 20
)

// Server wraps the playground UI and API handlers.
type Server struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	store   store.Store
	exec    *executor.Client
	logger  *slog.Logger
	mux     *http.ServeMux
}

type uiData struct {
	Title   string
	BaseURL string
}

// New constructs a new Server with routes registered.
func New(cfg *config.Config, cat *catalog.Catalog, st store.Store, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cat == nil {
		return nil, errors.New("catalog is nil")
	}
	if st == nil {
		return nil, errors.New("store is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		cfg:     cfg,
		catalog: cat,
		store:   st,
		logger:  logger,
		mux:     http.NewServeMux(),
		exec: &executor.Client{
			Logger:  logger,
			Debug:   cfg.Log.Debug,
			History: st,
			Redact:  cfg.Redact,
		},
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	s.logger.Info("playground listening", "addr", addr, "endpoints", len(s.catalog.Endpoints))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	// Rendered reference pages, when `docs` has been run.
	s.mux.Handle("/docs/", http.StripPrefix("/docs/", http.FileServer(http.Dir(s.cfg.Output.Dir))))

	s.mux.HandleFunc("/", s.handleIndex)

	s.mux.HandleFunc("/api/endpoints", s.handleEndpoints)
	s.mux.HandleFunc("/api/endpoints/", s.handleEndpointRoutes)
	s.mux.HandleFunc("/api/credential", s.handleCredential)
	s.mux.HandleFunc("/api/history", s.handleHistory)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = uiTemplate.Execute(w, uiData{Title: s.title(), BaseURL: s.baseURL()})
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":     s.title(),
		"base_url":  s.baseURL(),
		"languages": s.catalog.Languages,
		"items":     docs.Sidebar(s.catalog),
	})
}

func (s *Server) handleEndpointRoutes(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSOrigin)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	id, tail, ok := splitPath(r.URL.Path, "/api/endpoints/")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}
	ep, found := s.catalog.Find(id)
	if !found {
		writeError(w, http.StatusNotFound, "endpoint not found: "+id)
		return
	}
	switch tail {
	case "":
		s.handleEndpointDetail(w, r, ep)
	case "samples":
		s.handleSamples(w, r, ep)
	case "send":
		s.handleSend(w, r, ep)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleEndpointDetail(w http.ResponseWriter, r *http.Request, ep *types.Endpoint) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page, err := docs.RenderEndpoint(s.catalog, ep)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	method, label, _ := docs.ParseSidebarLabel(ep.Label)
	if method == "" {
		method = ep.Method
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"endpoint":   ep,
		"label":      label,
		"badge":      docs.Badge(method),
		"toc_header": docs.TOCHeader,
		"toc":        docs.ExtractTOC(page),
	})
}

type samplesRequest struct {
	Values   types.ParamValues `json:"values"`
	Language string            `json:"language,omitempty"`
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request, ep *types.Endpoint) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req samplesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	langs := s.catalog.Languages
	if req.Language != "" {
		langs = []string{req.Language}
	}
	cred, err := s.credential("")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	samples, err := codegen.RenderAll(langs, ep, s.baseURL(), cred, prune(req.Values))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"samples": samples})
}

type sendRequest struct {
	Values     types.ParamValues `json:"values"`
	Credential string            `json:"credential,omitempty"`
}

// handleSend reports upstream failures inline with a 200 so the UI can show
// them next to the form.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, ep *types.Endpoint) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		req   sendRequest
		files types.FileSelections
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		req.Values = types.ParamValues{}
		for key, vs := range r.MultipartForm.Value {
			if len(vs) == 0 {
				continue
			}
			if key == "credential" {
				req.Credential = vs[0]
				continue
			}
			req.Values[key] = vs[0]
		}
		var closers []io.Closer
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()
		var err error
		files, closers, err = openUploads(r.MultipartForm.File)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	cred, err := s.credential(req.Credential)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	res, err := s.exec.Submit(r.Context(), ep, s.baseURL(), cred, prune(req.Values), files)
	if err != nil {
		resp := map[string]any{"error": err.Error()}
		var httpErr *executor.HTTPError
		if errors.As(err, &httpErr) {
			resp["status"] = httpErr.Status
		}
		if !errors.Is(err, translator.ErrMissingCredential) {
			s.logger.Warn("live request failed", "endpoint", ep.ID, "err", err)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      res.Status,
		"response":    res.Pretty,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func openUploads(form map[string][]*multipart.FileHeader) (types.FileSelections, []io.Closer, error) {
	if len(form) == 0 {
		return nil, nil, nil
	}
	files := make(types.FileSelections, len(form))
	var closers []io.Closer
	for key, headers := range form {
		sel := &types.FileSelection{}
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return nil, closers, err
			}
			closers = append(closers, f)
			sel.Files = append(sel.Files, types.FileHandle{Name: fh.Filename, Content: f})
		}
		files[key] = sel
	}
	return files, closers, nil
}

func (s *Server) handleCredential(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSOrigin)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		cred, err := s.credential("")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"scope":  s.cfg.Credential.Scope,
			"set":    cred != "",
			"masked": Mask(cred),
		})
	case http.MethodPut:
		var req struct {
			Value string `json:"value"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		value := strings.TrimSpace(req.Value)
		if err := s.store.SetCredential(s.cfg.Credential.Scope, value); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"set": value != "", "masked": Mask(value)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := s.store.ListHistory(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// credential picks the first non-empty of the supplied value, the stored
// value and the configured value.
func (s *Server) credential(supplied string) (string, error) {
	if v := strings.TrimSpace(supplied); v != "" {
		return v, nil
	}
	stored, err := s.store.GetCredential(s.cfg.Credential.Scope)
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}
	return s.cfg.Credential.Value, nil
}

func (s *Server) baseURL() string {
	return s.catalog.ResolveBaseURL(s.cfg.Catalog.BaseURL)
}

func (s *Server) title() string {
	if s.catalog.Title != "" {
		return s.catalog.Title
	}
	return "API Playground"
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

func prune(v types.ParamValues) types.ParamValues {
	out := types.ParamValues{}
	for k, val := range v {
		if val != "" {
			out[k] = val
		}
	}
	return out
}

func splitPath(fullPath, prefix string) (string, string, bool) {
	if !strings.HasPrefix(fullPath, prefix) {
		return "", "", false
	}
	rest := strings.Trim(strings.TrimPrefix(fullPath, prefix), "/")
	if rest == "" {
		return "", "", false
	}
	id, tail, _ := strings.Cut(rest, "/")
	return id, tail, true
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// setCORS allows only the configured origin. With none configured the API
// is same-origin only, so other pages cannot use the stored key.
func setCORS(w http.ResponseWriter, origin string) {
	if origin == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Add("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
