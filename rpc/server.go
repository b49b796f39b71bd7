// Package rpc exposes the staking ledger over HTTP.
package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nftstaking/core"
	"nftstaking/indexer"
)

const maxBodyBytes = 1 << 20

type ServerConfig struct {
	RequestsPerSecond float64
	Burst             int
	JWT               JWTConfig
}

type Server struct {
	node    *core.Node
	indexer *indexer.Indexer
	logger  *slog.Logger
	limiter *RateLimiter
	auth    *authenticator
}

// NewServer wires the API. ix may be nil, in which case history queries
// answer 503.
func NewServer(node *core.Node, ix *indexer.Indexer, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Server{
		node:    node,
		indexer: ix,
		logger:  logger.With("component", "rpc"),
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		auth:    newAuthenticator(cfg.JWT),
	}
}

// Handler returns the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(observe(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(s.limiter.Middleware)
		v1.Use(s.auth.Middleware)

		v1.Get("/events", s.handleEvents)
		v1.Get("/configs", s.handleListConfigs)
		v1.Post("/configs", s.handleOpen)
		v1.Route("/configs/{config}", func(cr chi.Router) {
			cr.Get("/", s.handleGetConfig)
			cr.Post("/lock", s.handleLock)
			cr.Post("/claim", s.handleClaim)
			cr.Post("/unlock", s.handleUnlock)
			cr.Post("/reconfigure", s.handleReconfigure)
			cr.Post("/close", s.handleClose)
			cr.Get("/audit", s.handleAudit)
			cr.Get("/history", s.handleHistory)
			cr.Get("/positions", s.handleListPositions)
			cr.Get("/positions/{nft}", s.handleGetPosition)
			cr.Get("/positions/{nft}/pending", s.handlePending)
		})
		v1.Get("/assets/{asset}", s.handleAsset)
		v1.Get("/collections/{collection}", s.handleGetCollection)
		v1.Get("/accounts/{address}", s.handleAccount)
		v1.Get("/accounts/{address}/balances/{asset}", s.handleBalance)
	})

	return otelhttp.NewHandler(r, "nftstaking.api")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
}

// fail maps err to its status and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.ErrorContext(r.Context(), "request failed", "requestId", requestIDFrom(r.Context()), "error", err)
	}
	writeError(w, r, status, err)
}
