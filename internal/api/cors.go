package api

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	// AllowOrigins lists permitted origins; "*" permits any.
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// DefaultCORSConfig allows any origin, for dashboards on another port.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Accept", "Origin", "Last-Event-ID"},
		MaxAge:       86400,
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when origin is not permitted.
func (c CORSConfig) allowOrigin(origin string) string {
	if slices.Contains(c.AllowOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(c.AllowOrigins, origin) {
		return origin
	}
	return ""
}

type corsHeaders struct {
	config       CORSConfig
	allowMethods string
	allowHeaders string
	maxAge       string
}

func newCORSHeaders(config CORSConfig) corsHeaders {
	return corsHeaders{
		config:       config,
		allowMethods: strings.Join(config.AllowMethods, ", "),
		allowHeaders: strings.Join(config.AllowHeaders, ", "),
		maxAge:       strconv.Itoa(config.MaxAge),
	}
}

func (h corsHeaders) apply(origin string, set func(name, value string)) {
	allowed := h.config.allowOrigin(origin)
	if allowed == "" {
		return
	}
	set("Access-Control-Allow-Origin", allowed)
	if allowed != "*" {
		set("Vary", "Origin")
	}
	set("Access-Control-Allow-Methods", h.allowMethods)
	set("Access-Control-Allow-Headers", h.allowHeaders)
	set("Access-Control-Max-Age", h.maxAge)
}

// NewCORSMiddleware sets CORS headers on every huma operation.
func NewCORSMiddleware(config CORSConfig) func(huma.Context, func(huma.Context)) {
	h := newCORSHeaders(config)
	return func(ctx huma.Context, next func(huma.Context)) {
		h.apply(ctx.Header("Origin"), ctx.SetHeader)
		if ctx.Method() == http.MethodOptions {
			ctx.SetStatus(http.StatusNoContent)
			return
		}
		next(ctx)
	}
}

// AddCORSHandler answers preflight requests, which never reach huma
// middleware because no operation is registered for OPTIONS.
func AddCORSHandler(mux *http.ServeMux, config CORSConfig) {
	h := newCORSHeaders(config)
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		h.apply(r.Header.Get("Origin"), w.Header().Set)
		w.WriteHeader(http.StatusNoContent)
	})
}
