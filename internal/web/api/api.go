// Package api exposes the dictionary service over HTTP
package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/web/query"
	"github.com/datadict/datadict/internal/web/request"
	"github.com/datadict/datadict/internal/web/response"
	"github.com/datadict/datadict/internal/web/router"
)

// Handlers serves the roots, fields and models endpoints
type Handlers struct {
	svc    *dict.Service
	parser *request.Parser
	logger *zap.Logger
}

// NewHandlers creates the endpoint handlers for svc
func NewHandlers(svc *dict.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{svc: svc, parser: request.NewParser(), logger: logger}
}

// Register mounts every endpoint on r. Route names match the service
// operation names.
func (h *Handlers) Register(r *router.Router) {
	r.Get("/roots", "root.list", h.listRoots)
	r.Post("/roots", "root.create", h.createRoot)
	r.Post("/roots/check", "root.check", h.checkRoot)
	r.Get("/roots/{id}", "root.get", h.getRoot)
	r.Put("/roots/{id}", "root.update", h.updateRoot)
	r.Delete("/roots/{id}", "root.delete", h.deleteRoot)
	r.Post("/roots/{id}/aliases", "root.alias", h.addAlias)
	r.Get("/roots/{id}/impact", "root.impact", h.rootImpact)
	r.Patch("/roots/{id}/status", "root.status", h.setRootStatus)

	r.Get("/fields", "field.list", h.listFields)
	r.Post("/fields", "field.create", h.createField)
	r.Post("/fields/check-unique", "field.check", h.checkField)
	r.Get("/fields/by-roots/{roots}", "field.by_roots", h.fieldsByRoots)
	r.Get("/fields/{id}", "field.get", h.getField)
	r.Put("/fields/{id}", "field.update", h.updateField)
	r.Delete("/fields/{id}", "field.delete", h.deleteField)
	r.Patch("/fields/{id}/status", "field.status", h.setFieldStatus)
	r.Get("/fields/{id}/lineage", "field.lineage", h.fieldLineage)

	r.Get("/models", "model.list", h.listModels)
	r.Post("/models", "model.create", h.createModel)
	r.Get("/models/{id}", "model.get", h.getModel)
	r.Put("/models/{id}", "model.update", h.updateModel)
	r.Delete("/models/{id}", "model.delete", h.deleteModel)
	r.Get("/models/{id}/detail", "model.detail", h.modelDetail)
	r.Patch("/models/{id}/status", "model.status", h.setModelStatus)
	r.Post("/models/{id}/fields", "model.bind", h.bindField)
	r.Delete("/models/{id}/fields", "model.unbind", h.unbindField)
	r.Delete("/models/{id}/fields/{field_id}", "model.unbind", h.unbindFieldByPath)
	r.Get("/models/{id}/lineage", "model.lineage", h.modelLineage)
}

type statusBody struct {
	Status dict.Status `json:"status"`
}

// decode parses the JSON body into v, rendering a 400 on failure
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := h.parser.Parse(w, r, v); err != nil {
		response.RenderBadRequest(w, err.Error())
		return false
	}
	return true
}

// id extracts the {id} path parameter, rendering a 400 on failure
func id(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := router.PathID(r, name)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return 0, false
	}
	return v, true
}

// listParams parses the list query, rendering a 400 on failure
func listParams(w http.ResponseWriter, r *http.Request) (dict.ListParams, bool) {
	params, err := query.ParseList(r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return params, false
	}
	return params, true
}
