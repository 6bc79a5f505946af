package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/store"
)

const defaultFactLimit = 100

func (s *Server) handleJobFacts(w http.ResponseWriter, r *http.Request) {
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

	facts, err := s.store.ListFacts(r.Context(), store.FactFilter{
		JobID: jobID,
		Limit: clampLimit(r.URL.Query().Get("limit"), defaultFactLimit, 500),
	})
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if facts == nil {
		facts = []model.Fact{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"job_id": jobID, "facts": facts, "count": len(facts)})
}

func (s *Server) handleListFacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.FactFilter{
		FactType: q.Get("type"),
		Limit:    clampLimit(q.Get("limit"), defaultFactLimit, 500),
	}

	if raw := q.Get("approval"); raw != "" {
		approval := model.ApprovalStatus(raw)
		if !approval.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_approval", "unknown approval status: "+raw)
			return
		}
		filter.Approval = approval
	}
	if raw := q.Get("tier"); raw != "" {
		tier, err := strconv.Atoi(raw)
		if err != nil || tier < model.TierMin || tier > model.TierMax {
			writeError(w, http.StatusBadRequest, "invalid_tier", "tier must be between 1 and 3")
			return
		}
		filter.Tier = tier
	}
	if raw := q.Get("min_confidence"); raw != "" {
		conf, err := strconv.ParseFloat(raw, 64)
		if err != nil || conf < 0 || conf > 1 {
			writeError(w, http.StatusBadRequest, "invalid_confidence", "min_confidence must be between 0 and 1")
			return
		}
		filter.MinConfidence = conf
	}

	facts, err := s.store.ListFacts(r.Context(), filter)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if facts == nil {
		facts = []model.Fact{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"facts": facts, "count": len(facts)})
}

func (s *Server) handleApproveFact(w http.ResponseWriter, r *http.Request) {
	s.reviewFact(w, r, model.ApprovalApproved)
}

func (s *Server) handleRejectFact(w http.ResponseWriter, r *http.Request) {
	s.reviewFact(w, r, model.ApprovalRejected)
}

// reviewFact flips a pending fact's approval status. Review is one-shot:
// a second decision on the same fact returns 409.
func (s *Server) reviewFact(w http.ResponseWriter, r *http.Request, decision model.ApprovalStatus) {
	if !s.cfg.Features.FactReview {
		writeError(w, http.StatusForbidden, "feature_disabled", "fact review is disabled")
		return
	}

	factID := chi.URLParam(r, "factID")

	fact, err := s.store.GetFact(r.Context(), factID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if fact == nil {
		writeNotFound(w, "fact", factID)
		return
	}

	ok, err := s.store.ReviewFact(r.Context(), factID, decision)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "already_reviewed",
			"fact "+factID+" is already "+string(fact.ApprovalStatus))
		return
	}

	zap.L().Info("fact reviewed",
		zap.String("fact_id", factID),
		zap.String("decision", string(decision)),
	)
	writeSuccess(w, http.StatusOK, map[string]any{"fact_id": factID, "approval_status": decision})
}
