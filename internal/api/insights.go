package api

import (
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/procurelens/supplier-insights-backend/internal/model"
)

// ─── POST /api/insights ───────────────────────────────────────────────────────

// handleGenerateInsights runs one analysis. Validation failures are rejected
// here with a 400 and never reach generation; a 500 means the generation
// pipeline itself failed, which only happens when even the rule-based
// fallback could not produce a result.
func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	var req model.InsightRequest
	if !decode(w, r, &req) {
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("insights requested",
		"category", req.Category,
		"suppliers", req.SupplierCount(),
		"request_id", requestID(r),
	)

	result, err := s.analyst.GenerateInsights(r.Context(), &req)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("generate insights: %w", err))
		return
	}

	respond(w, http.StatusOK, result)
}

// ─── POST /api/insights/batch ────────────────────────────────────────────────

type batchRequest struct {
	Requests []model.InsightRequest `json:"requests"`
}

type batchResponse struct {
	Results []model.InsightResult `json:"results"`
}

const maxBatchSize = 20

// handleGenerateInsightsBatch analyses several categories in one call.
// Every request is validated before any generation starts, so a 400 never
// leaves partially-generated work behind. Generation then runs concurrently
// with a fixed limit; results are positional. One item's upstream failure
// never affects another — each falls back independently inside the analyst.
func (s *Server) handleGenerateInsightsBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decode(w, r, &req) {
		return
	}

	if len(req.Requests) == 0 {
		respondErr(w, http.StatusBadRequest, "requests must not be empty")
		return
	}
	if len(req.Requests) > maxBatchSize {
		respondErr(w, http.StatusBadRequest,
			fmt.Sprintf("too many requests in a single batch (max %d)", maxBatchSize))
		return
	}

	for i := range req.Requests {
		req.Requests[i].Normalize()
		if err := req.Requests[i].Validate(); err != nil {
			respondErr(w, http.StatusBadRequest, fmt.Sprintf("requests[%d]: %s", i, err.Error()))
			return
		}
	}

	results := make([]model.InsightResult, len(req.Requests))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.BatchLimit)
	for i := range req.Requests {
		i := i
		g.Go(func() error {
			result, err := s.analyst.GenerateInsights(ctx, &req.Requests[i])
			if err != nil {
				return fmt.Errorf("requests[%d]: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("generate batch: %w", err))
		return
	}

	respond(w, http.StatusOK, batchResponse{Results: results})
}

// ─── GET /api/health ─────────────────────────────────────────────────────────

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Provider string `json:"llm_provider"`
}

// handleHealth reports service status and which generation path is
// configured for this process.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, healthResponse{
		Status:   "healthy",
		Version:  Version,
		Provider: s.cfg.Provider,
	})
}
