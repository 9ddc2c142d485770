package handlers

import "net/http"

// State returns the visitor view state as JSON.
func (a *App) State(w http.ResponseWriter, r *http.Request) {
	v, ok := a.visitor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "missing visitor")
		return
	}
	a.json(w, http.StatusOK, v.Snapshot())
}
