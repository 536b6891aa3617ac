package api

import (
	"net/http"

	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/web/response"
)

type aliasBody struct {
	Alias string `json:"alias"`
}

type rootCheckBody struct {
	Name string `json:"name"`
}

func (h *Handlers) listRoots(w http.ResponseWriter, r *http.Request) {
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	roots, page, err := h.svc.ListRoots(r.Context(), params)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, roots, page)
}

func (h *Handlers) createRoot(w http.ResponseWriter, r *http.Request) {
	var in dict.RootInput
	if !h.decode(w, r, &in) {
		return
	}
	root, err := h.svc.CreateRoot(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, "root created", root)
}

func (h *Handlers) checkRoot(w http.ResponseWriter, r *http.Request) {
	var in rootCheckBody
	if !h.decode(w, r, &in) {
		return
	}
	check, err := h.svc.CheckRootName(r.Context(), in.Name)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, check.Message, check)
}

func (h *Handlers) getRoot(w http.ResponseWriter, r *http.Request) {
	rootID, ok := id(w, r, "id")
	if !ok {
		return
	}
	root, err := h.svc.GetRoot(r.Context(), rootID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", root)
}

func (h *Handlers) updateRoot(w http.ResponseWriter, r *http.Request) {
	rootID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var upd dict.RootUpdate
	if !h.decode(w, r, &upd) {
		return
	}
	root, err := h.svc.UpdateRoot(r.Context(), rootID, upd)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "root updated", root)
}

func (h *Handlers) deleteRoot(w http.ResponseWriter, r *http.Request) {
	rootID, ok := id(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteRoot(r.Context(), rootID); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "root deleted", nil)
}

func (h *Handlers) addAlias(w http.ResponseWriter, r *http.Request) {
	rootID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var in aliasBody
	if !h.decode(w, r, &in) {
		return
	}
	root, err := h.svc.AddAlias(r.Context(), rootID, in.Alias)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "alias added", root)
}

func (h *Handlers) rootImpact(w http.ResponseWriter, r *http.Request) {
	rootID, ok := id(w, r, "id")
	if !ok {
		return
	}
	impact, err := h.svc.RootImpact(r.Context(), rootID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "ok", impact)
}

func (h *Handlers) setRootStatus(w http.ResponseWriter, r *http.Request) {
	rootID, ok := id(w, r, "id")
	if !ok {
		return
	}
	var in statusBody
	if !h.decode(w, r, &in) {
		return
	}
	root, err := h.svc.SetRootStatus(r.Context(), rootID, in.Status)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, "root status updated", root)
}
