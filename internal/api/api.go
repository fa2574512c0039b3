// Package api serves the REST endpoints for cards, dashboards, users,
// collections, revisions and card query execution. Handlers read and write
// record.Records; response shaping happens through the hydration engine,
// driven by each endpoint's default directives or the caller's ?hydrate=
// parameter.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	eventbus "github.com/hanpama/hydrograph/internal/eventbus"
	events "github.com/hanpama/hydrograph/internal/events"
	hydrate "github.com/hanpama/hydrograph/internal/hydrate"
	query "github.com/hanpama/hydrograph/internal/query"
	reqid "github.com/hanpama/hydrograph/internal/reqid"
	store "github.com/hanpama/hydrograph/internal/store"
)

// Handler is an http.Handler exposing the hydrograph REST API.
type Handler struct {
	db   *store.DB
	hyd  *hydrate.Hydrator
	exec *query.Executor
	mux  *http.ServeMux
	opt  Options
}

// Options controls request handling behavior.
type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of request bodies. 0 means unlimited.
	MaxBodyBytes int64

	// APIKey, when non-empty, requires every request to carry it in the
	// X-API-Key header.
	APIKey string

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithAPIKey(key string) Option       { return func(o *Options) { o.APIKey = key } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// New creates the REST handler.
func New(db *store.DB, hyd *hydrate.Hydrator, exec *query.Executor, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, MaxBodyBytes: 1 << 20}
	for _, f := range opts {
		f(&op)
	}
	h := &Handler{db: db, hyd: hyd, exec: exec, opt: op}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/card", h.listCards)
	mux.HandleFunc("POST /api/card", h.createCard)
	mux.HandleFunc("GET /api/card/{id}", h.getCard)
	mux.HandleFunc("PUT /api/card/{id}", h.updateCard)
	mux.HandleFunc("DELETE /api/card/{id}", h.deleteCard)
	mux.HandleFunc("POST /api/card/{id}/query", h.runCardQuery)

	mux.HandleFunc("GET /api/dashboard", h.listDashboards)
	mux.HandleFunc("POST /api/dashboard", h.createDashboard)
	mux.HandleFunc("GET /api/dashboard/{id}", h.getDashboard)
	mux.HandleFunc("PUT /api/dashboard/{id}", h.updateDashboard)
	mux.HandleFunc("DELETE /api/dashboard/{id}", h.deleteDashboard)
	mux.HandleFunc("POST /api/dashboard/{id}/cards", h.addDashboardCard)

	mux.HandleFunc("GET /api/user", h.listUsers)
	mux.HandleFunc("GET /api/user/{id}", h.getUser)
	mux.HandleFunc("POST /api/user", h.createUser)

	mux.HandleFunc("GET /api/collection", h.listCollections)
	mux.HandleFunc("POST /api/collection", h.createCollection)

	mux.HandleFunc("GET /api/revision", h.listRevisions)

	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx, _ = reqid.NewContext(ctx)
	r = r.WithContext(ctx)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: sw.status, Duration: time.Since(start)})
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(sw, r, h.opt.CORS)
	}
	if r.Method == http.MethodOptions {
		sw.WriteHeader(http.StatusNoContent)
		return
	}

	if h.opt.APIKey != "" && r.Header.Get("X-API-Key") != h.opt.APIKey {
		writeJSON(sw, http.StatusUnauthorized, errorBody("invalid or missing API key"), h.opt.Pretty)
		return
	}

	h.mux.ServeHTTP(sw, r)
}

// statusWriter captures the response status for the finish event.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// ------------------ Shared helpers ------------------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v, h.opt.Pretty)
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func errorBody(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// writeError maps domain failures onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case store.ErrNotFound.Has(err):
		h.writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case query.ErrRejectedQuery.Has(err), query.ErrUnknownDatabase.Has(err):
		h.writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		h.writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, errorBody(msg))
}

// decodeJSON decodes a request body, honoring the body size limit.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := r.Body
	if h.opt.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.opt.MaxBodyBytes)
	}
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

var errBodyTooLarge = errors.New("body too large")

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// hydrateDirectives resolves the endpoint's hydration directives: the
// caller's ?hydrate= selection when present, otherwise the endpoint default.
func hydrateDirectives(r *http.Request, defaults string) ([]hydrate.Directive, error) {
	src := r.URL.Query().Get("hydrate")
	if src == "" {
		src = defaults
	}
	return hydrate.ParseDirectives(src)
}

// actorID reads the acting user from the X-User-Id header, when present.
func actorID(r *http.Request) *int64 {
	raw := r.Header.Get("X-User-Id")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	wildcard := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			allowed = true
			wildcard = true
		}
		if o == origin {
			allowed = true
		}
	}
	if !allowed {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	}
}
