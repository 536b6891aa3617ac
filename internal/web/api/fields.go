package api

import (
	"net/http"

	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/web/query"
	"github.com/datadict/datadict/internal/web/response"
	"github.com/datadict/datadict/internal/web/router"
)

type fieldCheckBody struct {
	Name string `json:"field_name"`
}

func (h *Handlers) listFields(w http.ResponseWriter, r *http.Request) {
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	fields, page, err := h.svc.ListFields(r.Context(), params)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, fields, page)
}

func (h *Handlers) createField(w http.ResponseWriter, r *http.Request) {
	var in dict.FieldInput
	if !h.decode(w, r, &in) {
		return
	}
	field, err := h.svc.CreateField(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, "field created", field)
}

func (h *Handlers) checkField(w http.ResponseWriter, r *http.Request) {
	var in fieldCheckBody
	if !h.decode(w, r, &in) {
		return
	}
	check, err := h.svc.CheckFieldName(r.Context(), in.Name)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, check.Message, check)
}

func (h *Handlers) fieldsByRoots(w http.ResponseWriter, r *http.Request) {
	roots := query.ParseCSV(router.PathParam(r, "roots"))
	if len(roots) == 0 {
		response.RenderBadRequest(w, "at least one root name is required")
		return
	}
	fields, err := h.svc.FieldsByRoots(r.Context(), roots)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", fields)
}

func (h *Handlers) getField(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := id(w, r, "id")
	if !ok {
		return
	}
	field, err := h.svc.GetField(r.Context(), fieldID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", field)
}

func (h *Handlers) updateField(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var upd dict.FieldUpdate
	if !h.decode(w, r, &upd) {
		return
	}
	field, err := h.svc.UpdateField(r.Context(), fieldID, upd)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "field updated", field)
}

func (h *Handlers) deleteField(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := id(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteField(r.Context(), fieldID); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "field deleted", nil)
}

func (h *Handlers) setFieldStatus(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var in statusBody
	if !h.decode(w, r, &in) {
		return
	}
	field, err := h.svc.SetFieldStatus(r.Context(), fieldID, in.Status)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "field status updated", field)
}

func (h *Handlers) fieldLineage(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := id(w, r, "id")
	if !ok {
		return
	}
	lineage, err := h.svc.FieldLineage(r.Context(), fieldID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", lineage)
}
