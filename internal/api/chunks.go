package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/enrichment-api/internal/model"
)

func (s *Server) handleJobPrompts(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if job == nil {
		writeNotFound(w, "job", jobID)
		return
	}

	prompts, err := s.store.ListJobPrompts(r.Context(), jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if prompts == nil {
		prompts = []model.Prompt{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"job_id": jobID, "prompts": prompts, "count": len(prompts)})
}

type chunkView struct {
	model.Chunk
	HasEmbedding bool `json:"has_embedding"`
}

func (s *Server) handleJobChunks(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if job == nil {
		writeNotFound(w, "job", jobID)
		return
	}

	q := r.URL.Query()
	limit := clampLimit(q.Get("limit"), 100, 500)
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	chunks, err := s.store.ListJobChunks(r.Context(), jobID, limit, offset)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	views := make([]chunkView, 0, len(chunks))
	for i := range chunks {
		views = append(views, chunkView{Chunk: chunks[i], HasEmbedding: chunks[i].HasEmbedding()})
	}
	writeSuccess(w, http.StatusOK, map[string]any{"job_id": jobID, "chunks": views, "count": len(views)})
}
