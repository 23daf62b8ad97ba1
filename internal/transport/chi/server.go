package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/coordinator"
	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
	healthuc "github.com/kailas-cloud/facetsearch/internal/usecase/health"
	labelsuc "github.com/kailas-cloud/facetsearch/internal/usecase/labels"
	sessionuc "github.com/kailas-cloud/facetsearch/internal/usecase/session"
	"github.com/kailas-cloud/facetsearch/internal/version"
)

const (
	maxBodyBytes   = 1 << 20
	maxLabelValues = 200
)

// Server serves the widget session API.
type Server struct {
	sessions      *sessionuc.Service
	labels        *labelsuc.Service
	health        *healthuc.Service
	settings      settings.Settings
	compiler      *compiler.Compiler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. labels can be nil.
func NewServer(
	sessions *sessionuc.Service,
	labels *labelsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := sessions.Settings()
	return &Server{
		sessions:      sessions,
		labels:        labels,
		health:        health,
		settings:      s,
		compiler:      compiler.New(s),
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers every API route on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/settings", s.GetSettings)
		r.Post("/compile", s.Compile)
		r.Get("/labels/{facet}", s.ResolveLabels)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Post("/actions", s.DispatchActions)
				r.Post("/refresh", s.RefreshSession)
			})
		})
	})
}

// CreateSession handles POST /v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sessionToResponse(s.settings, sess.ID, sess.Intent))
}

// GetSession handles GET /v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToResponse(s.settings, id, snap))
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DispatchActions handles POST /v1/sessions/{id}/actions. The body is a
// single action envelope, an array of envelopes or JSON lines.
func (s *Server) DispatchActions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actions, err := intent.DecodeActions(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(actions) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "at least one action is required")
		return
	}

	var snap intent.Intent
	for _, a := range actions {
		snap, err = s.sessions.Dispatch(r.Context(), id, a)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, sessionToResponse(s.settings, id, snap))
}

// RefreshSession handles POST /v1/sessions/{id}/refresh?force=true.
func (s *Server) RefreshSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "force must be a boolean")
			return
		}
		force = b
	}

	snap, err := s.sessions.Refresh(r.Context(), id, force)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, sessionToResponse(s.settings, id, snap))
}

// Compile handles POST /v1/compile. It never contacts the search endpoint.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var req CompileRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	state := intent.Reduce(intent.Initial(), coordinator.MountAction(s.settings))
	if req.Intent != nil {
		state = *req.Intent
	}
	for i, raw := range req.Actions {
		a, err := intent.DecodeAction(raw)
		if err != nil {
			s.handleDomainError(w, fmt.Errorf("action %d: %w", i, err))
			return
		}
		state = coordinator.Apply(s.settings, state, a)
	}

	writeJSON(w, http.StatusOK, s.compiler.Compile(compiler.InputFrom(state)))
}

// ResolveLabels handles GET /v1/labels/{facet}?value=a&value=b.
func (s *Server) ResolveLabels(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "facet")
	if _, ok := facet.FieldByKey(s.settings.FacetFields, key); !ok {
		s.handleDomainError(w, fmt.Errorf("facet %q: %w", key, domain.ErrNotFound))
		return
	}

	values := r.URL.Query()["value"]
	if key == facet.KeyType {
		values = slices.DeleteFunc(values, func(v string) bool { return !s.settings.TypeAllowed(v) })
	}
	if len(values) == 0 || len(values) > maxLabelValues {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest,
			fmt.Sprintf("value count must be between 1 and %d", maxLabelValues))
		return
	}

	var resolved []labelsuc.Label
	if s.labels == nil {
		resolved = make([]labelsuc.Label, len(values))
		for i, v := range values {
			resolved[i] = labelsuc.Label{Value: v, Label: v}
		}
	} else {
		var err error
		resolved, err = s.labels.ResolveAll(r.Context(), key, values)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, LabelsResponse{Facet: key, Labels: resolved})
}

// GetSettings handles GET /v1/settings.
func (s *Server) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, settingsToResponse(s.settings))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

