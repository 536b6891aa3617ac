package api

import (
	"net/http"

	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/web/response"
)

type unbindBody struct {
	FieldID int64 `json:"field_id"`
}

func (h *Handlers) listModels(w http.ResponseWriter, r *http.Request) {
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	models, page, err := h.svc.ListModels(r.Context(), params)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, models, page)
}

func (h *Handlers) createModel(w http.ResponseWriter, r *http.Request) {
	var in dict.ModelInput
	if !h.decode(w, r, &in) {
		return
	}
	model, err := h.svc.CreateModel(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, "model created", model)
}

func (h *Handlers) getModel(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	model, err := h.svc.GetModel(r.Context(), modelID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", model)
}

func (h *Handlers) modelDetail(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.ModelDetail(r.Context(), modelID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", detail)
}

func (h *Handlers) updateModel(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var upd dict.ModelUpdate
	if !h.decode(w, r, &upd) {
		return
	}
	model, err := h.svc.UpdateModel(r.Context(), modelID, upd)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "model updated", model)
}

func (h *Handlers) deleteModel(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteModel(r.Context(), modelID); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "model deleted", nil)
}

func (h *Handlers) setModelStatus(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var in statusBody
	if !h.decode(w, r, &in) {
		return
	}
	model, err := h.svc.SetModelStatus(r.Context(), modelID, in.Status)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "model status updated", model)
}

func (h *Handlers) bindField(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var in dict.BindingInput
	if !h.decode(w, r, &in) {
		return
	}
	binding, err := h.svc.BindField(r.Context(), modelID, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, "field bound", binding)
}

func (h *Handlers) unbindField(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var in unbindBody
	if !h.decode(w, r, &in) {
		return
	}
	if in.FieldID < 1 {
		response.RenderBadRequest(w, "field_id is required")
		return
	}
	h.unbind(w, r, modelID, in.FieldID)
}

func (h *Handlers) unbindFieldByPath(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	fieldID, ok := id(w, r, "field_id")
	if !ok {
		return
	}
	h.unbind(w, r, modelID, fieldID)
}

func (h *Handlers) unbind(w http.ResponseWriter, r *http.Request, modelID, fieldID int64) {
	if err := h.svc.UnbindField(r.Context(), modelID, fieldID); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "field unbound", nil)
}

func (h *Handlers) modelLineage(w http.ResponseWriter, r *http.Request) {
	modelID, ok := id(w, r, "id")
	if !ok {
		return
	}
	lineage, err := h.svc.ModelLineage(r.Context(), modelID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", lineage)
}
