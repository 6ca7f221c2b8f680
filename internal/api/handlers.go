// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tablemix/internal/metrics"
	"github.com/tomtom215/tablemix/internal/models"
	"github.com/tomtom215/tablemix/internal/party"
	"github.com/tomtom215/tablemix/internal/validation"
)

// Handler holds the HTTP handlers. All business logic lives in the
// engine; handlers only decode, validate, dispatch, and encode.
type Handler struct {
	engine *party.Engine
}

// NewHandler creates the handler set.
func NewHandler(engine *party.Engine) *Handler {
	return &Handler{engine: engine}
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "healthy"}, time.Now())
}

// CreateParty handles POST /api/v1/parties.
func (h *Handler) CreateParty(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req party.CreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
		return
	}

	p, err := h.engine.CreateParty(r.Context(), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, p, started)
}

// GetParty handles GET /api/v1/parties/{id}.
func (h *Handler) GetParty(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	p, err := h.engine.GetParty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, started)
}

// ListParties handles GET /api/v1/parties.
func (h *Handler) ListParties(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	parties, err := h.engine.ListParties(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, parties, started)
}

// ScheduleParty handles POST /api/v1/parties/{id}/schedule.
func (h *Handler) ScheduleParty(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	p, err := h.engine.ScheduleParty(r.Context(), chi.URLParam(r, "id"))
	metrics.RecordSchedule(time.Since(started), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, p.Results.Rounds, started)
}

// RoundContext handles GET /api/v1/parties/{id}/rounds/{n}/context.
func (h *Handler) RoundContext(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "round number must be an integer", err)
		return
	}

	contexts, err := h.engine.RoundContext(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, contexts, started)
}

// RecordSignal handles POST /api/v1/parties/{id}/signals.
func (h *Handler) RecordSignal(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var sig models.InteractionSignal
	if !decodeBody(w, r, &sig) {
		return
	}
	if verr := validation.ValidateStruct(&sig); verr != nil {
		metrics.RecordSignalRejected("api", "validation")
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
		return
	}

	if err := h.engine.RecordSignal(r.Context(), chi.URLParam(r, "id"), sig); err != nil {
		metrics.RecordSignalRejected("api", "domain")
		respondDomainError(w, err)
		return
	}

	metrics.RecordSignal("api", string(sig.Kind))
	respondSuccess(w, http.StatusAccepted, map[string]string{"status": "recorded"}, started)
}

// CompleteParty handles POST /api/v1/parties/{id}/complete.
func (h *Handler) CompleteParty(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	p, err := h.engine.CompleteParty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, started)
}

// GenerateReport handles GET /api/v1/parties/{id}/reports/{profileId}.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	reportType := models.ReportType(r.URL.Query().Get("type"))
	if reportType == "" {
		reportType = models.ReportSummary
	}

	rpt, err := h.engine.GenerateReport(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "profileId"), reportType)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	metrics.RecordReport(string(reportType), time.Since(started))
	respondSuccess(w, http.StatusOK, rpt, started)
}

// GetReport handles GET /api/v1/reports/{id}: retrieval of a previously
// generated report by its id.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	rpt, err := h.engine.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, rpt, started)
}

// Pairings handles GET /api/v1/parties/{id}/pairings: the co-occurrence
// matrix of a scheduled party, exposed as a testable artifact.
func (h *Handler) Pairings(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	pairings, err := h.engine.Pairings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, pairings, started)
}

// RegisterProfile handles PUT /api/v1/profiles/{id}.
func (h *Handler) RegisterProfile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var p models.Participant
	if !decodeBody(w, r, &p) {
		return
	}
	p.ProfileID = chi.URLParam(r, "id")

	if err := h.engine.RegisterProfile(r.Context(), p); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, started)
}

// GetProfile handles GET /api/v1/profiles/{id}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	p, err := h.engine.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, started)
}
