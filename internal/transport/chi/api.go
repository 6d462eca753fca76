package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// CollectionName is the {collection} path segment.
type CollectionName = string

// DocumentID is the {id} path segment.
type DocumentID = string

// DatabaseParams carries the optional database selector shared by every endpoint.
type DatabaseParams struct {
	Db *string `form:"db,omitempty" json:"db,omitempty"`
}

// ListDocumentsParams defines parameters for ListDocuments.
type ListDocumentsParams struct {
	Db    *string `form:"db,omitempty" json:"db,omitempty"`
	Limit *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Skip  *int    `form:"skip,omitempty" json:"skip,omitempty"`
	Field *string `form:"field,omitempty" json:"field,omitempty"`
	Value *string `form:"value,omitempty" json:"value,omitempty"`
}

// FieldValueParams defines parameters for the single-field lookups.
type FieldValueParams struct {
	Db    *string `form:"db,omitempty" json:"db,omitempty"`
	Field string  `form:"field" json:"field"`
	Value string  `form:"value" json:"value"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /)
	Root(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
	// (GET /collections)
	ListCollections(w http.ResponseWriter, r *http.Request, params DatabaseParams)
	// (GET /collections/{collection}/documents)
	ListDocuments(w http.ResponseWriter, r *http.Request, collection CollectionName, params ListDocumentsParams)
	// (POST /collections/{collection}/documents)
	InsertDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, params DatabaseParams)
	// (GET /collections/{collection}/documents/find)
	FindDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, params FieldValueParams)
	// (GET /collections/{collection}/documents/exists)
	DocumentExists(w http.ResponseWriter, r *http.Request, collection CollectionName, params FieldValueParams)
	// (GET /collections/{collection}/has-duplicate)
	HasDuplicate(w http.ResponseWriter, r *http.Request, collection CollectionName, params FieldValueParams)
	// (DELETE /collections/{collection}/documents/{id})
	DeleteDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID, params DatabaseParams)
	// (PUT /collections/{collection}/documents/{id})
	ReplaceDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID, params DatabaseParams)
	// (PATCH /collections/{collection}/documents/{id})
	UpdateDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID, params DatabaseParams)
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts raw requests into typed handler calls.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// RequiredParamError reports a missing required query parameter.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("query argument %s is required, but not found", e.ParamName)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	h.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) bindCollection(w http.ResponseWriter, r *http.Request) (CollectionName, bool) {
	var collection CollectionName
	err := runtime.BindStyledParameterWithOptions("simple", "collection", chi.URLParam(r, "collection"), &collection,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "collection", Err: err})
		return "", false
	}
	return collection, true
}

func (siw *ServerInterfaceWrapper) bindID(w http.ResponseWriter, r *http.Request) (DocumentID, bool) {
	var id DocumentID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (siw *ServerInterfaceWrapper) bindDatabase(w http.ResponseWriter, r *http.Request) (DatabaseParams, bool) {
	var params DatabaseParams
	if err := runtime.BindQueryParameter("form", true, false, "db", r.URL.Query(), &params.Db); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "db", Err: err})
		return params, false
	}
	return params, true
}

func (siw *ServerInterfaceWrapper) bindFieldValue(w http.ResponseWriter, r *http.Request) (FieldValueParams, bool) {
	var params FieldValueParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "db", query, &params.Db); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "db", Err: err})
		return params, false
	}
	for _, p := range []struct {
		name string
		dest *string
	}{{"field", &params.Field}, {"value", &params.Value}} {
		if query.Get(p.name) == "" {
			siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: p.name})
			return params, false
		}
		if err := runtime.BindQueryParameter("form", true, true, p.name, query, p.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: p.name, Err: err})
			return params, false
		}
	}
	return params, true
}

// Root operation middleware
func (siw *ServerInterfaceWrapper) Root(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.Root))
}

// HealthCheck operation middleware
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.HealthCheck))
}

// Metrics operation middleware
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.Metrics))
}

// ListCollections operation middleware
func (siw *ServerInterfaceWrapper) ListCollections(w http.ResponseWriter, r *http.Request) {
	params, ok := siw.bindDatabase(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListCollections(w, r, params)
	}))
}

// ListDocuments operation middleware
func (siw *ServerInterfaceWrapper) ListDocuments(w http.ResponseWriter, r *http.Request) {
	collection, ok := siw.bindCollection(w, r)
	if !ok {
		return
	}

	var params ListDocumentsParams
	query := r.URL.Query()
	bindings := []struct {
		name string
		dest any
	}{
		{"db", &params.Db},
		{"limit", &params.Limit},
		{"skip", &params.Skip},
		{"field", &params.Field},
		{"value", &params.Value},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListDocuments(w, r, collection, params)
	}))
}

// InsertDocument operation middleware
func (siw *ServerInterfaceWrapper) InsertDocument(w http.ResponseWriter, r *http.Request) {
	collection, ok := siw.bindCollection(w, r)
	if !ok {
		return
	}
	params, ok := siw.bindDatabase(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.InsertDocument(w, r, collection, params)
	}))
}

// FindDocument operation middleware
func (siw *ServerInterfaceWrapper) FindDocument(w http.ResponseWriter, r *http.Request) {
	siw.fieldValueOperation(w, r, siw.Handler.FindDocument)
}

// DocumentExists operation middleware
func (siw *ServerInterfaceWrapper) DocumentExists(w http.ResponseWriter, r *http.Request) {
	siw.fieldValueOperation(w, r, siw.Handler.DocumentExists)
}

// HasDuplicate operation middleware
func (siw *ServerInterfaceWrapper) HasDuplicate(w http.ResponseWriter, r *http.Request) {
	siw.fieldValueOperation(w, r, siw.Handler.HasDuplicate)
}

func (siw *ServerInterfaceWrapper) fieldValueOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(http.ResponseWriter, *http.Request, CollectionName, FieldValueParams),
) {
	collection, ok := siw.bindCollection(w, r)
	if !ok {
		return
	}
	params, ok := siw.bindFieldValue(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op(w, r, collection, params)
	}))
}

// DeleteDocument operation middleware
func (siw *ServerInterfaceWrapper) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	siw.documentOperation(w, r, siw.Handler.DeleteDocument)
}

// ReplaceDocument operation middleware
func (siw *ServerInterfaceWrapper) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	siw.documentOperation(w, r, siw.Handler.ReplaceDocument)
}

// UpdateDocument operation middleware
func (siw *ServerInterfaceWrapper) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	siw.documentOperation(w, r, siw.Handler.UpdateDocument)
}

func (siw *ServerInterfaceWrapper) documentOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(http.ResponseWriter, *http.Request, CollectionName, DocumentID, DatabaseParams),
) {
	collection, ok := siw.bindCollection(w, r)
	if !ok {
		return
	}
	id, ok := siw.bindID(w, r)
	if !ok {
		return
	}
	params, ok := siw.bindDatabase(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op(w, r, collection, id, params)
	}))
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	base := options.BaseURL
	r.Group(func(r chi.Router) {
		r.Get(base+"/", wrapper.Root)
		r.Get(base+"/health", wrapper.HealthCheck)
		r.Get(base+"/metrics", wrapper.Metrics)
		r.Get(base+"/collections", wrapper.ListCollections)
		r.Get(base+"/collections/{collection}/documents", wrapper.ListDocuments)
		r.Post(base+"/collections/{collection}/documents", wrapper.InsertDocument)
		r.Get(base+"/collections/{collection}/documents/find", wrapper.FindDocument)
		r.Get(base+"/collections/{collection}/documents/exists", wrapper.DocumentExists)
		r.Get(base+"/collections/{collection}/has-duplicate", wrapper.HasDuplicate)
		r.Get(base+"/collections/{collection}/documents/has-duplicate", wrapper.HasDuplicate)
		r.Delete(base+"/collections/{collection}/documents/{id}", wrapper.DeleteDocument)
		r.Put(base+"/collections/{collection}/documents/{id}", wrapper.ReplaceDocument)
		r.Patch(base+"/collections/{collection}/documents/{id}", wrapper.UpdateDocument)
	})
	return r
}
