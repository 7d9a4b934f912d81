package http

import (
	"net/http"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, owner string) {
	accounts, err := s.svc.Accounts.ListAccounts(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountJSON, len(accounts))
	for i, a := range accounts {
		out[i] = toAccountJSON(a)
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, owner string) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toNew()
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.svc.Accounts.CreateAccount(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toAccountJSON(a))
}

func (s *Server) handleDeactivateAccount(w http.ResponseWriter, r *http.Request, owner string) {
	id := r.PathValue("id")
	if err := s.svc.Accounts.DeactivateAccount(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, owner string) {
	cats, err := s.svc.Categories.ListCategories(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryJSON, len(cats))
	for i, c := range cats {
		out[i] = toCategoryJSON(c)
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, owner string) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Categories.CreateCategory(r.Context(), owner, req.toNew())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCategoryJSON(c))
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request, owner string) {
	res, err := s.svc.SeedDefaults(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accounts := make([]accountJSON, len(res.Accounts))
	for i, a := range res.Accounts {
		accounts[i] = toAccountJSON(a)
	}
	cats := make([]categoryJSON, len(res.Categories))
	for i, c := range res.Categories {
		cats[i] = toCategoryJSON(c)
	}
	writeData(w, http.StatusCreated, map[string]any{
		"accounts":   accounts,
		"categories": cats,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, owner string) {
	q := r.URL.Query()
	from, err := parseOptionalDate("from", q.Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseOptionalDate("to", q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.svc.Reports.Summary(r.Context(), owner, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toSummaryJSON(summary))
}
