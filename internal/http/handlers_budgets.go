package http

import (
	"net/http"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, owner string) {
	views, err := s.svc.Budgets.ListBudgets(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetJSON, len(views))
	for i, v := range views {
		out[i] = toBudgetJSON(v)
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, owner string) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toNew()
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.svc.Budgets.CreateBudget(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toBudgetJSON(v))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, owner string) {
	v, err := s.svc.Budgets.GetBudget(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toBudgetJSON(v))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, owner string) {
	var req budgetPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.svc.Budgets.UpdateBudget(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toBudgetJSON(v))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, owner string) {
	id := r.PathValue("id")
	if err := s.svc.Budgets.DeleteBudget(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}
