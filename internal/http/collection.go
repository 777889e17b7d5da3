package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Collection binds the add/update/delete operations of one list in the
// financial document
type Collection[In, Out any] struct {
	Add    func(ctx context.Context, userID string, in In) (*Out, error)
	Update func(ctx context.Context, userID, id string, in In) (*Out, error)
	Delete func(ctx context.Context, userID, id string) error
}

// Mount registers POST pattern, PUT pattern/{id} and DELETE pattern/{id}.
// Handlers expect RequireSession upstream.
func (c Collection[In, Out]) Mount(r chi.Router, pattern string) {
	r.Post(pattern, func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := DecodeJSON(w, r, &in); err != nil {
			Error(w, err)
			return
		}
		out, err := c.Add(r.Context(), UserID(r), in)
		if err != nil {
			Error(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, out)
	})

	r.Put(pattern+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := DecodeJSON(w, r, &in); err != nil {
			Error(w, err)
			return
		}
		out, err := c.Update(r.Context(), UserID(r), chi.URLParam(r, "id"), in)
		if err != nil {
			Error(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, out)
	})

	r.Delete(pattern+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := c.Delete(r.Context(), UserID(r), chi.URLParam(r, "id")); err != nil {
			Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
