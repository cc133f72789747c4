package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layerkit/pkg/buildinfo"
	"github.com/matzehuels/layerkit/pkg/cache"
	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/observability"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

const (
	defaultAddr         = "127.0.0.1:8080"
	defaultTimeout      = 60 * time.Second
	shutdownGracePeriod = 10 * time.Second
	maxRequestBytes     = 8 << 20
	headerRequestID     = "X-Request-Id"
)

// serveCommand creates the serve command exposing layouts over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		timeout   time.Duration
		keyPrefix string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

Endpoints:
  POST /v1/layout   body {"graph": {...}, "options": {...}}
  GET  /healthz

Options use the same keys as the --config file. Requests share the cache
selected with --cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()
			if keyPrefix != "" {
				runner.Keyer = cache.NewScopedKeyer(runner.Keyer, keyPrefix)
			}
			return serve(ctx, addr, newServer(runner, c.Logger, timeout), c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "per-request timeout")
	cmd.Flags().StringVar(&keyPrefix, "key-prefix", "", "prefix for cache keys written by the server")

	return cmd
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// =============================================================================
// Router
// =============================================================================

type server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// newServer builds the HTTP handler.
func newServer(runner *pipeline.Runner, logger *log.Logger, timeout time.Duration) http.Handler {
	s := &server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/layout", s.handleLayout)
	return r
}

// requestID tags each request with a UUID, keeping one sent by the client.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe reports requests to the HTTP hooks and logs them.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", d)
	})
}

// =============================================================================
// Handlers
// =============================================================================

type layoutRequest struct {
	Graph   graph.Graph      `json:"graph"`
	Options pipeline.Options `json:"options"`
}

type layoutResponse struct {
	RunID     string            `json:"run_id"`
	GraphHash string            `json:"graph_hash"`
	Layout    graph.Layout      `json:"layout"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Stats     statsResponse     `json:"stats"`
	Cached    bool              `json:"cached"`
}

type statsResponse struct {
	Nodes         int     `json:"nodes"`
	Edges         int     `json:"edges"`
	Layers        int     `json:"layers"`
	Dummies       int     `json:"dummies"`
	ReversedEdges int     `json:"reversed_edges"`
	Crossings     int     `json:"crossings"`
	LayoutMillis  float64 `json:"layout_ms"`
	RenderMillis  float64 `json:"render_ms"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, lkerrors.Wrap(lkerrors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}

	opts := req.Options
	opts.Logger = s.logger.With("request", middleware.GetReqID(r.Context()))
	result, err := s.runner.Execute(r.Context(), req.Graph, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := layoutResponse{
		RunID:     result.RunID,
		GraphHash: result.GraphHash,
		Layout:    result.Layout,
		Stats: statsResponse{
			Nodes:         result.Stats.NodeCount,
			Edges:         result.Stats.EdgeCount,
			Layers:        result.Stats.Layers,
			Dummies:       result.Stats.Dummies,
			ReversedEdges: result.Stats.ReversedEdges,
			Crossings:     result.Stats.Crossings,
			LayoutMillis:  millis(result.Stats.LayoutTime),
			RenderMillis:  millis(result.Stats.RenderTime),
		},
		Cached: result.CacheInfo.LayoutHit,
	}
	for format, data := range result.Artifacts {
		switch format {
		case pipeline.FormatJSON:
			// Already in Layout.
		case pipeline.FormatPNG:
			resp.setArtifact(format, base64.StdEncoding.EncodeToString(data))
		default:
			resp.setArtifact(format, string(data))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *layoutResponse) setArtifact(format, data string) {
	if r.Artifacts == nil {
		r.Artifacts = make(map[string]string)
	}
	r.Artifacts[format] = data
}

// writeError maps an error to its status code and a JSON body.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) && lkerrors.GetCode(err) == "" {
		err = lkerrors.Wrap(lkerrors.ErrCodeTimeout, err, "request timed out")
	}
	code := lkerrors.GetCode(err)
	if code == "" {
		code = lkerrors.ErrCodeInternal
	}
	status := lkerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorResponse{
		Code:      string(code),
		Message:   lkerrors.UserMessage(err),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
