package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/matzehuels/snapstack/pkg/cache"
	pkgerrors "github.com/matzehuels/snapstack/pkg/errors"
	"github.com/matzehuels/snapstack/pkg/export"
	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/model"
	"github.com/matzehuels/snapstack/pkg/observability"
	"github.com/matzehuels/snapstack/pkg/pipeline"
	"github.com/matzehuels/snapstack/pkg/store"
)

// maxBodyBytes caps request bodies on the serve API.
const maxBodyBytes = 8 << 20

// =============================================================================
// Serve Command
// =============================================================================

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr       string  // listen address
	storeDir   string  // file store directory (default ~/.config/snapstack/workspaces)
	mongoURI   string  // MongoDB connection string; overrides the file store
	redisAddr  string  // Redis address; overrides the file cache
	configPath string  // TOML geometry/color overrides
	scale      float64 // default workspace-to-view scale factor
	rtl        bool    // default right-to-left block layout
	noCache    bool    // disable caching entirely
}

func (c *CLI) serveCommand() *cobra.Command {
	opts := &serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workspaces over HTTP",
		Long: `Start an HTTP server exposing stored workspaces and their layouts.

The API stores workspace documents, computes layout snapshots, renders
SVG previews, and applies connect/disconnect/move edits:

  GET    /healthz                       liveness probe
  GET    /metrics                       Prometheus metrics
  GET    /api/workspaces                list stored workspaces
  POST   /api/workspaces                save a workspace {"name": ..., "data": ...}
  GET    /api/workspaces/{id}           fetch a workspace document
  DELETE /api/workspaces/{id}           delete a workspace
  GET    /api/workspaces/{id}/layout    layout snapshot (JSON)
  POST   /api/workspaces/{id}/connect   connect two blocks and persist
  POST   /api/workspaces/{id}/disconnect  disconnect a block and persist
  POST   /api/workspaces/{id}/move      move a block group and persist
  POST   /api/layout                    layout snapshot for an inline document
  GET    /preview/{id}.svg              rendered SVG preview

Documents live in a local directory by default; pass --mongo to use
MongoDB instead. Pass --redis to share the snapshot cache between
instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8787", "listen address")
	cmd.Flags().StringVar(&opts.storeDir, "store-dir", "", "workspace store directory")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for the workspace store")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis address for the snapshot cache")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a TOML layout config")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "default render scale")
	cmd.Flags().BoolVar(&opts.rtl, "rtl", false, "lay out blocks right-to-left by default")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	st, err := openStore(ctx, &workspaceOpts{storeDir: opts.storeDir, mongoURI: opts.mongoURI})
	if err != nil {
		return fmt.Errorf("open workspace store: %w", err)
	}
	defer st.Close()

	ca, err := newServeCache(ctx, opts)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	metrics, err := newMetricsCollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	metrics.Install()

	runner := pipeline.NewRunner(ca, nil, c.Logger)
	defer runner.Close()

	srv := &server{
		runner: runner,
		store:  st,
		logger: c.Logger,
		opts:   opts,
	}

	httpServer := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	printInfo("Listening on %s", opts.addr)
	c.Logger.Info("server started", "addr", opts.addr, "store", storeKind(opts), "cache", cacheKind(opts))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	c.Logger.Info("server stopped")
	return ctx.Err()
}

// =============================================================================
// Backends
// =============================================================================

// newServeCache picks the snapshot cache: Redis when an address is given,
// the local file cache otherwise. The Redis connection is retried so the
// server survives a cache that comes up a moment later.
func newServeCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisAddr != "" {
		var rc cache.Cache
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			rc, err = cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redisAddr})
			return err
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	return newCache(false)
}

func storeKind(opts *serveOpts) string {
	if opts.mongoURI != "" {
		return "mongo"
	}
	return "file"
}

func cacheKind(opts *serveOpts) string {
	switch {
	case opts.noCache:
		return "none"
	case opts.redisAddr != "":
		return "redis"
	}
	return "file"
}

// =============================================================================
// Server
// =============================================================================

// server holds the HTTP handler state. Handlers are safe for concurrent
// use: the runner is stateless and every edit builds its own coordinator.
type server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	opts   *serveOpts
}

func (s *server) routes(metrics *metricsCollector) http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument(metrics))

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleInlineLayout)
		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", s.handleListWorkspaces)
			r.Post("/", s.handleSaveWorkspace)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetWorkspace)
				r.Delete("/", s.handleDeleteWorkspace)
				r.Get("/layout", s.handleLayout)
				r.Post("/connect", s.handleConnect)
				r.Post("/disconnect", s.handleDisconnect)
				r.Post("/move", s.handleMove)
			})
		})
	})

	r.Get("/preview/{id}.svg", s.handlePreview)

	return r
}

// instrument records request metrics and logs each handled request.
func (s *server) instrument(metrics *metricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// The route pattern is only known after routing has run.
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
			s.logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed.Round(time.Millisecond))
		})
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// =============================================================================
// Workspace Handlers
// =============================================================================

// workspaceSummary is the list/response shape for stored documents,
// a Document without its payload.
type workspaceSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func summarize(doc *store.Document) workspaceSummary {
	return workspaceSummary{
		ID:        doc.ID,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summaries := make([]workspaceSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, summarize(doc))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *server) handleSaveWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string          `json:"name"`
		Data json.RawMessage `json:"data"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name == "" {
		s.respondError(w, r, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "workspace name is required"))
		return
	}
	if _, err := model.UnmarshalWorkspace(req.Data); err != nil {
		s.respondError(w, r, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidFormat, err, "parse workspace document"))
		return
	}

	doc := store.NewDocument(req.Name, req.Data)
	if err := s.store.Set(r.Context(), doc); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(doc))
}

func (s *server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadDocument(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadDocument fetches the document addressed by the request's {id}.
func (s *server) loadDocument(r *http.Request) (*store.Document, error) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("workspace %q: %w", id, store.ErrNotFound)
	}
	return doc, nil
}

// =============================================================================
// Layout Handlers
// =============================================================================

func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts := s.pipelineOptions(r)
	opts.WorkspaceID = chi.URLParam(r, "id")

	ws, err := s.runner.Load(ctx, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	snapshot, hit, err := s.runner.LayoutSnapshot(ctx, ws, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeSnapshot(w, snapshot, hit)
}

func (s *server) handleInlineLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, r, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "read request body"))
		return
	}

	opts := s.pipelineOptions(r)
	opts.Data = data

	ws, err := s.runner.Load(ctx, opts)
	if err != nil {
		s.respondError(w, r, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidFormat, err, "parse workspace document"))
		return
	}
	snapshot, hit, err := s.runner.LayoutSnapshot(ctx, ws, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeSnapshot(w, snapshot, hit)
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	opts := s.pipelineOptions(r)
	opts.WorkspaceID = chi.URLParam(r, "id")
	opts.Formats = []string{pipeline.FormatSVG}
	opts.Background = true
	opts.Markers = queryBool(r, "markers")

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Cache", cacheHeader(result.CacheInfo.ArtifactHit))
	_, _ = w.Write(result.Artifacts[pipeline.FormatSVG])
}

// pipelineOptions derives per-request pipeline options from the server
// defaults and the request's query parameters.
func (s *server) pipelineOptions(r *http.Request) pipeline.Options {
	opts := pipeline.Options{
		Scale:      s.opts.scale,
		RTL:        s.opts.rtl,
		ConfigPath: s.opts.configPath,
		Refresh:    queryBool(r, "refresh"),
		Store:      s.store,
	}
	if v := r.URL.Query().Get("scale"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			opts.Scale = f
		}
	}
	if r.URL.Query().Has("rtl") {
		opts.RTL = queryBool(r, "rtl")
	}
	return opts
}

// =============================================================================
// Editing Handlers
// =============================================================================

// connectionRef addresses one connection on a stored block.
type connectionRef struct {
	Block      string `json:"block"`           // block ID
	Connection string `json:"connection"`      // "previous", "next", "output", or "input"
	Input      string `json:"input,omitempty"` // input name when connection is "input"
}

type connectRequest struct {
	Moving     connectionRef `json:"moving"`
	Stationary connectionRef `json:"stationary"`
}

type moveRequest struct {
	Block string  `json:"block"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// editResponse carries the updated document metadata and the fresh layout.
type editResponse struct {
	Workspace workspaceSummary `json:"workspace"`
	Layout    json.RawMessage  `json:"layout"`
}

func (s *server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.editWorkspace(w, r, func(coord *layout.Coordinator, ws *model.Workspace) error {
		moving, err := resolveConnection(ws, req.Moving)
		if err != nil {
			return err
		}
		stationary, err := resolveConnection(ws, req.Stationary)
		if err != nil {
			return err
		}
		return withTransaction(r.Context(), "connect", func() error {
			return coord.ConnectPair(moving, stationary)
		})
	})
}

func (s *server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req connectionRef
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.editWorkspace(w, r, func(coord *layout.Coordinator, ws *model.Workspace) error {
		conn, err := resolveConnection(ws, req)
		if err != nil {
			return err
		}
		return withTransaction(r.Context(), "disconnect", func() error {
			conn.Disconnect()
			return nil
		})
	})
}

func (s *server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.editWorkspace(w, r, func(coord *layout.Coordinator, ws *model.Workspace) error {
		b, ok := ws.BlockByID(req.Block)
		if !ok {
			return pkgerrors.New(pkgerrors.ErrCodeNotFound, "block %q not found", req.Block)
		}
		return withTransaction(r.Context(), "move", func() error {
			return coord.MoveBlockGroup(b, geometry.Pt(req.X, req.Y))
		})
	})
}

// editWorkspace runs mutate against a freshly built coordinator for the
// stored workspace, persists the result, and responds with the updated
// layout. The workspace cache is written through so subsequent loads see
// the edit.
func (s *server) editWorkspace(w http.ResponseWriter, r *http.Request, mutate func(*layout.Coordinator, *model.Workspace) error) {
	ctx := r.Context()

	doc, err := s.loadDocument(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	ws, err := model.UnmarshalWorkspace(doc.Data)
	if err != nil {
		s.respondError(w, r, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidFormat, err, "parse workspace %q", doc.ID))
		return
	}
	coord, _, err := s.runner.BuildLayout(ws, s.pipelineOptions(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := mutate(coord, ws); err != nil {
		s.respondError(w, r, err)
		return
	}
	coord.Flush()

	data, err := model.MarshalWorkspace(ws)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	doc.Data = data
	if err := s.store.Set(ctx, doc); err != nil {
		s.respondError(w, r, err)
		return
	}
	_ = s.runner.Cache.Set(ctx, s.runner.Keyer.WorkspaceKey(doc.ID), data, cache.TTLWorkspace)

	layoutData, err := export.RenderJSON(coord.WorkspaceLayout(), export.WithJSONConnections())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, editResponse{Workspace: summarize(doc), Layout: layoutData})
}

// resolveConnection finds the connection a ref addresses on the stored
// workspace's block model.
func resolveConnection(ws *model.Workspace, ref connectionRef) (*model.Connection, error) {
	b, ok := ws.BlockByID(ref.Block)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "block %q not found", ref.Block)
	}

	var conn *model.Connection
	switch ref.Connection {
	case "previous":
		conn = b.PreviousConnection()
	case "next":
		conn = b.NextConnection()
	case "output":
		conn = b.OutputConnection()
	case "input":
		in, ok := b.InputByName(ref.Input)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "block %q has no input %q", ref.Block, ref.Input)
		}
		conn = in.Connection()
	default:
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput,
			"unknown connection kind %q (want previous, next, output, or input)", ref.Connection)
	}
	if conn == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "block %q has no %s connection", ref.Block, ref.Connection)
	}
	return conn, nil
}

// withTransaction wraps an engine mutation in the transaction hooks.
func withTransaction(ctx context.Context, kind string, fn func() error) error {
	hooks := observability.Engine()
	hooks.OnTransactionStart(ctx, kind)
	start := time.Now()
	err := fn()
	hooks.OnTransactionComplete(ctx, kind, time.Since(start), err)
	return err
}

// =============================================================================
// Response Helpers
// =============================================================================

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSnapshot(w http.ResponseWriter, snapshot []byte, hit bool) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheHeader(hit))
	_, _ = w.Write(snapshot)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

// respondError maps an error to an HTTP status and a JSON body.
func (s *server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound) || pkgerrors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidID):
		status = http.StatusBadRequest
	case pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput),
		pkgerrors.Is(err, pkgerrors.ErrCodeInvalidFormat),
		pkgerrors.Is(err, pkgerrors.ErrCodeInvalidConfig):
		status = http.StatusBadRequest
	case pkgerrors.Is(err, pkgerrors.ErrCodeIncompatible):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryBool(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
