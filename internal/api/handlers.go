// Package api exposes HTTP handlers for the ritual service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/ritual/internal/auth"
	"example.com/ritual/internal/domain"
	"example.com/ritual/internal/observability"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/schedule", h.schedule)
	mux.HandleFunc("/v1/streak", h.streak)
	mux.HandleFunc("/v1/rituals", h.rituals)
	mux.HandleFunc("/v1/rituals/", h.ritualByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) rituals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createRitual(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) ritualByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/rituals/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing ritual id")
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	switch {
	case action == "" && r.Method == http.MethodGet:
		h.getRitual(w, r, id)
	case action == "" && r.Method == http.MethodPut:
		h.updateRitual(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.deleteRitual(w, r, id)
	case action == "completions" && r.Method == http.MethodPost:
		h.completeRitual(w, r, id)
	case action == "fork" && r.Method == http.MethodPost:
		h.forkRitual(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createRitual(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	var req CreateRitualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	ritual, err := h.service.CreateRitual(r.Context(), claims.Subject, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRitualView(*ritual))
}

func (h *Handler) getRitual(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeRitualsRead, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	ritual, err := h.service.GetRitual(r.Context(), claims.Subject, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRitualView(*ritual))
}

func (h *Handler) updateRitual(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	var req CreateRitualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	ritual, err := h.service.UpdateRitual(r.Context(), claims.Subject, id, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRitualView(*ritual))
}

func (h *Handler) deleteRitual(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	if err := h.service.DeleteRitual(r.Context(), claims.Subject, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeRitualsRead, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	schedule, err := h.service.ResolveSchedule(r.Context(), claims.Subject, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ScheduleResponse{
		Date:      schedule.Date.Format(time.DateOnly),
		Scheduled: make([]RitualView, 0, len(schedule.Scheduled)),
		Completed: make([]CompletionView, 0, len(schedule.Completed)),
	}
	for _, ritual := range schedule.Scheduled {
		resp.Scheduled = append(resp.Scheduled, toRitualView(ritual))
	}
	for _, completion := range schedule.Completed {
		resp.Completed = append(resp.Completed, toCompletionView(completion))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) completeRitual(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	var req CompleteRitualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	responses := make([]domain.StepResponse, 0, len(req.Responses))
	for _, payload := range req.Responses {
		responses = append(responses, payload.toDomain())
	}

	completion, err := h.service.CompleteRitual(r.Context(), claims.Subject, id, req.Notes, responses, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompletionView(*completion))
}

func (h *Handler) forkRitual(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	fork, err := h.service.ForkRitual(r.Context(), claims.Subject, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRitualView(*fork))
}

func (h *Handler) streak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeRitualsRead, auth.ScopeRitualsWrite)
	if !ok {
		return
	}

	streak, err := h.service.Streak(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStreakView(*streak))
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return nil, false
}

// writeDomainError maps domain errors onto stable error codes. Unknown
// errors are reported as transient so callers know a retry may help.
func writeDomainError(w http.ResponseWriter, err error) {
	var stepErr *domain.StepDefinitionError
	var freqErr *domain.FrequencyRuleError
	var missingErr *domain.MissingStepError
	var mismatchErr *domain.TypeMismatchError

	switch {
	case errors.Is(err, domain.ErrRitualNotFound):
		writeError(w, http.StatusNotFound, "not_found", "ritual not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not allowed for this ritual")
	case errors.Is(err, domain.ErrDuplicateCompletion):
		observability.RecordDuplicateCompletion()
		writeError(w, http.StatusConflict, "duplicate_completion", "ritual already completed for this date")
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.As(err, &stepErr):
		writeError(w, http.StatusBadRequest, "invalid_step_definition", stepErr.Error())
	case errors.As(err, &freqErr):
		writeError(w, http.StatusBadRequest, "invalid_frequency_rule", freqErr.Error())
	case errors.As(err, &missingErr):
		writeError(w, http.StatusBadRequest, "missing_required_step", missingErr.Error())
	case errors.As(err, &mismatchErr):
		writeError(w, http.StatusBadRequest, "type_mismatch", mismatchErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "transient_failure", "storage failure, request was rolled back")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
