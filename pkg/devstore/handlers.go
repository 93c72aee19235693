package devstore

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGet serves a single document body.
func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	doc, err := s.store.Get(r.Context(), collection, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound,
				errorResponse{"document not found"})

			return
		}

		s.log.WithError(err).Error("Failed to get document")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// handlePut writes a full document. The claimed revision travels in the
// document body; an empty one means create.
func (s *server) handlePut(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid document body"})

		return
	}

	claimed, _ := fields["revision"].(string)

	revision, created, err := s.store.Put(
		r.Context(), collection, id, claimed, fields,
	)
	if err != nil {
		if errors.Is(err, ErrRevisionMismatch) {
			writeJSON(w, http.StatusConflict,
				errorResponse{"revision conflict"})

			return
		}

		s.log.WithError(err).Error("Failed to put document")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, map[string]any{
		"id":       id,
		"revision": revision,
		"ok":       true,
	})
}

// handleDelete removes the revision named by the rev query parameter.
func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	revision := r.URL.Query().Get("rev")

	err := s.store.Delete(r.Context(), collection, id, revision)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "ok": true})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound,
			errorResponse{"document not found"})
	case errors.Is(err, ErrRevisionMismatch):
		writeJSON(w, http.StatusConflict,
			errorResponse{"revision conflict"})
	default:
		s.log.WithError(err).Error("Failed to delete document")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})
	}
}

// handleQuery evaluates the AND-combined clause structure against every
// document in the collection.
func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var query docstore.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid query body"})

		return
	}

	docs, err := s.store.List(r.Context(), collection)
	if err != nil {
		s.log.WithError(err).Error("Failed to list documents")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	items := make([]json.RawMessage, 0, len(docs))

	for _, doc := range docs {
		var fields map[string]any
		if err := json.Unmarshal(doc.Body, &fields); err != nil {
			s.log.WithError(err).
				WithField("id", doc.DocID).
				Warn("Skipping undecodable document")

			continue
		}

		if matchesClauses(fields, query.Clauses) {
			items = append(items, json.RawMessage(doc.Body))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
