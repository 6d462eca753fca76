package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/minicompass/internal/domain"
	domdoc "github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	logpkg "github.com/kailas-cloud/minicompass/internal/logger"
	"github.com/kailas-cloud/minicompass/internal/metrics"
	collectionuc "github.com/kailas-cloud/minicompass/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/minicompass/internal/usecase/document"
	healthuc "github.com/kailas-cloud/minicompass/internal/usecase/health"
)

// Banner is the body of GET /.
const Banner = "API Mini Compass"

// DefaultMaxBodyBytes bounds request bodies unless overridden.
const DefaultMaxBodyBytes int64 = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// CollectionsResponse is the body of GET /collections.
type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

// DocumentsResponse is the body of GET /collections/{collection}/documents.
type DocumentsResponse struct {
	Documents []domdoc.Document `json:"documents"`
}

// DocumentResponse is the body of the find endpoint.
type DocumentResponse struct {
	Document domdoc.Document `json:"document"`
}

// ExistsResponse is the body of the exists endpoint.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// DuplicateResponse is the body of the has-duplicate endpoint.
type DuplicateResponse struct {
	Count     int64 `json:"count"`
	Duplicate bool  `json:"duplicate"`
}

// InsertResponse is the body of a successful insert.
type InsertResponse struct {
	InsertedID string `json:"insertedId"`
}

// SuccessResponse acknowledges a write.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// Server implements ServerInterface over the use-case services.
type Server struct {
	collections   *collectionuc.Service
	documents     *documentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	documents *documentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		collections:  collections,
		documents:    documents,
		health:       health,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		detailHandler(domain.ErrInvalidArgument, http.StatusBadRequest),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable),
	}
	return s
}

// WithMaxBodyBytes bounds request bodies.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, Banner)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request, params DatabaseParams) {
	names, err := s.collections.List(r.Context(), deref(params.Db))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CollectionsResponse{Collections: names})
}

// ListDocuments handles GET /collections/{collection}/documents.
func (s *Server) ListDocuments(
	w http.ResponseWriter,
	r *http.Request,
	collection CollectionName,
	params ListDocumentsParams,
) {
	q := documentuc.Query{Field: params.Field, Value: params.Value, Limit: params.Limit}
	if params.Skip != nil {
		q.Skip = *params.Skip
	}

	docs, err := s.documents.Query(r.Context(), deref(params.Db), collection, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domdoc.Document{}
	}
	writeJSON(w, http.StatusOK, DocumentsResponse{Documents: docs})
}

// FindDocument handles GET /collections/{collection}/documents/find.
func (s *Server) FindDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, params FieldValueParams) {
	doc, err := s.documents.FindOne(r.Context(), deref(params.Db), collection, fieldValue(params))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Document: doc})
}

// DocumentExists handles GET /collections/{collection}/documents/exists.
func (s *Server) DocumentExists(w http.ResponseWriter, r *http.Request, collection CollectionName, params FieldValueParams) {
	ok, err := s.documents.Exists(r.Context(), deref(params.Db), collection, fieldValue(params))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExistsResponse{Exists: ok})
}

// HasDuplicate handles GET /collections/{collection}/has-duplicate.
func (s *Server) HasDuplicate(w http.ResponseWriter, r *http.Request, collection CollectionName, params FieldValueParams) {
	n, err := s.documents.CountByValue(r.Context(), deref(params.Db), collection, params.Field, params.Value)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DuplicateResponse{Count: n, Duplicate: n >= 2})
}

// InsertDocument handles POST /collections/{collection}/documents.
func (s *Server) InsertDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, params DatabaseParams) {
	body, ok := s.decodeObject(w, r)
	if !ok {
		return
	}
	id, err := s.documents.Insert(r.Context(), deref(params.Db), collection, body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, InsertResponse{InsertedID: id})
}

// DeleteDocument handles DELETE /collections/{collection}/documents/{id}.
func (s *Server) DeleteDocument(
	w http.ResponseWriter,
	r *http.Request,
	collection CollectionName,
	id DocumentID,
	params DatabaseParams,
) {
	if err := s.documents.Delete(r.Context(), deref(params.Db), collection, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ReplaceDocument handles PUT /collections/{collection}/documents/{id}.
func (s *Server) ReplaceDocument(
	w http.ResponseWriter,
	r *http.Request,
	collection CollectionName,
	id DocumentID,
	params DatabaseParams,
) {
	body, ok := s.decodeObject(w, r)
	if !ok {
		return
	}
	if err := s.documents.Replace(r.Context(), deref(params.Db), collection, id, body); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// UpdateDocument handles PATCH /collections/{collection}/documents/{id}.
func (s *Server) UpdateDocument(
	w http.ResponseWriter,
	r *http.Request,
	collection CollectionName,
	id DocumentID,
	params DatabaseParams,
) {
	body, ok := s.decodeObject(w, r)
	if !ok {
		return
	}
	if err := s.documents.Update(r.Context(), deref(params.Db), collection, id, body); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// decodeObject reads a JSON object body. Integral numbers stay integers.
func (s *Server) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	doc, err := domdoc.Unmarshal(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return nil, false
	}
	return doc, true
}

// fieldValue turns the query pair into a one-condition filter mapping.
func fieldValue(params FieldValueParams) map[string]any {
	return map[string]any{params.Field: filter.QueryValue(params.Field, params.Value).Any()}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// BadRequestHandler reports parameter binding failures.
func BadRequestHandler(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

// sentinelHandler returns an errorHandler that answers with the sentinel's own message.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, sentinel.Error())
		return true
	}
}

// detailHandler returns an errorHandler that exposes the full message.
// Only used for validation errors, whose text never carries store internals.
func detailHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)

	for _, h := range s.errorHandlers {
		if h(w, err) {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				log.Error("store unavailable", zap.Error(err))
			} else {
				log.Warn("domain error", zap.Error(err))
			}
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
