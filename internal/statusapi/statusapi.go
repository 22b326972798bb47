// Package statusapi serves a small HTTP status/health API over a set of
// running replication pairs.
package statusapi

import (
	"encoding/json"
	"net/http"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PairStatus is one replication pair's health as reported by /status.
type PairStatus struct {
	SourceAlias string `json:"sourceAlias"`
	TargetAlias string `json:"targetAlias"`
	Running     bool   `json:"running"`
	LastError   string `json:"lastError,omitempty"`

	SourceAuthType string `json:"sourceAuthType,omitempty"`
	TargetAuthType string `json:"targetAuthType,omitempty"`

	SourceCertificate *CertificateStatus `json:"sourceCertificate,omitempty"`
	TargetCertificate *CertificateStatus `json:"targetCertificate,omitempty"`
}

// CertificateStatus summarizes a cluster's TLS certificate validity for
// operators watching /status — internal/config.ClusterConfig.GetCertificateInfo
// produces the values this is built from. Defined natively here rather than
// imported from internal/config, which already imports this package.
type CertificateStatus struct {
	NotAfter     time.Time `json:"notAfter"`
	DaysToExpiry int       `json:"daysToExpiry"`
	Status       string    `json:"status"`
}

// Registry is the capability the API needs from whatever is tracking
// live replication pairs — internal/config.PairRegistry satisfies this.
type Registry interface {
	Statuses() []PairStatus
}

// Server is the status/health HTTP server.
type Server struct {
	registry Registry
	logger   *chlog.Logger
}

// New builds a Server over the given registry.
func New(registry Registry, logger *chlog.Logger) *Server {
	return &Server{registry: registry, logger: logger}
}

// Router builds the chi router serving /status and /healthz.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	r.Get("/status", s.status)
	return r
}

// Run starts the status server listening on addr until the process exits
// or ListenAndServe returns an error.
func (s *Server) Run(addr string) error {
	s.logger.Info("status API listening", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	statuses := s.registry.Statuses()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statuses); err != nil {
		s.logger.Error("encode status failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
