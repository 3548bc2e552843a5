package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example.com/ritual/internal/auth"
	"example.com/ritual/internal/domain"
	"example.com/ritual/internal/persistence/memory"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	svc := domain.NewService(memory.NewRepository())
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)
	return mux
}

func authedRequest(method, target string, body any, subject string, scopes ...string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)

	scopeSet := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		scopeSet[scope] = struct{}{}
	}
	claims := &auth.Claims{Subject: subject, Scopes: scopeSet}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func morningRequest() CreateRitualRequest {
	return CreateRitualRequest{
		Name:     "morning routine",
		Category: "health",
		Steps: []StepDefinitionPayload{
			{Name: "made the bed", Type: "boolean", IsRequired: true, OrderIndex: 0},
			{Name: "gratitude", Type: "qna", OrderIndex: 1},
		},
		Frequency: FrequencyRulePayload{Type: "daily", Interval: 1},
	}
}

func createRitual(t *testing.T, mux *http.ServeMux, owner string, req CreateRitualRequest) RitualView {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals", req, owner, auth.ScopeRitualsWrite))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ritual: got status %d, body %s", rec.Code, rec.Body.String())
	}
	var view RitualView
	decodeBody(t, rec, &view)
	return view
}

func TestCreateRitual(t *testing.T) {
	mux := newTestMux(t)

	view := createRitual(t, mux, "user-1", morningRequest())
	if view.RitualID == "" {
		t.Fatal("expected a ritual id")
	}
	if view.OwnerID != "user-1" {
		t.Fatalf("owner = %q, want user-1", view.OwnerID)
	}
	if len(view.Steps) != 2 || view.Steps[0].ID == "" {
		t.Fatalf("unexpected steps: %+v", view.Steps)
	}
	if view.Visibility != "private" {
		t.Fatalf("visibility = %q, want private by default", view.Visibility)
	}
}

func TestCreateRitualValidation(t *testing.T) {
	mux := newTestMux(t)

	bad := morningRequest()
	bad.Frequency = FrequencyRulePayload{Type: "daily", Interval: 1, DaysOfWeek: []int{1}}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals", bad, "user-1", auth.ScopeRitualsWrite))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["type"] != "invalid_frequency_rule" {
		t.Fatalf("error type = %q, want invalid_frequency_rule", body["type"])
	}
}

func TestAuthRequired(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/streak", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}

	// Read scope is not enough to create.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals", morningRequest(), "user-1", auth.ScopeRitualsRead))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", rec.Code)
	}
}

func TestGetRitualNotFound(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/rituals/nope", nil, "user-1", auth.ScopeRitualsRead))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["type"] != "not_found" {
		t.Fatalf("error type = %q, want not_found", body["type"])
	}
}

func TestCompleteRitualAndDuplicate(t *testing.T) {
	mux := newTestMux(t)
	view := createRitual(t, mux, "user-1", morningRequest())

	value := true
	completion := CompleteRitualRequest{
		Date: time.Now().UTC().Format(time.DateOnly),
		Responses: []StepResponsePayload{
			{StepDefinitionID: view.Steps[0].ID, Type: "boolean", ValueBoolean: &value},
		},
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals/"+view.RitualID+"/completions", completion, "user-1", auth.ScopeRitualsWrite))
	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var recorded CompletionView
	decodeBody(t, rec, &recorded)
	if len(recorded.Responses) != 2 {
		t.Fatalf("responses = %d, want 2 (optional step filled in)", len(recorded.Responses))
	}
	if !recorded.Responses[1].Skipped {
		t.Fatal("expected the absent optional step to be marked skipped")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals/"+view.RitualID+"/completions", completion, "user-1", auth.ScopeRitualsWrite))
	if rec.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["type"] != "duplicate_completion" {
		t.Fatalf("error type = %q, want duplicate_completion", body["type"])
	}
}

func TestCompleteRitualMissingRequired(t *testing.T) {
	mux := newTestMux(t)
	view := createRitual(t, mux, "user-1", morningRequest())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals/"+view.RitualID+"/completions",
		CompleteRitualRequest{}, "user-1", auth.ScopeRitualsWrite))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["type"] != "missing_required_step" {
		t.Fatalf("error type = %q, want missing_required_step", body["type"])
	}
}

func TestSchedule(t *testing.T) {
	mux := newTestMux(t)
	view := createRitual(t, mux, "user-1", morningRequest())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/schedule", nil, "user-1", auth.ScopeRitualsRead))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var schedule ScheduleResponse
	decodeBody(t, rec, &schedule)
	if len(schedule.Scheduled) != 1 || schedule.Scheduled[0].RitualID != view.RitualID {
		t.Fatalf("unexpected schedule: %+v", schedule)
	}
	if len(schedule.Completed) != 0 {
		t.Fatalf("completed = %d, want 0", len(schedule.Completed))
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/schedule?date=april-fools", nil, "user-1", auth.ScopeRitualsRead))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400 for a malformed date", rec.Code)
	}
}

func TestForkRitual(t *testing.T) {
	mux := newTestMux(t)

	public := morningRequest()
	public.Visibility = "public"
	source := createRitual(t, mux, "owner", public)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals/"+source.RitualID+"/fork", nil, "forker", auth.ScopeRitualsWrite))
	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var fork RitualView
	decodeBody(t, rec, &fork)
	if fork.OwnerID != "forker" || fork.ForkedFromID == nil || *fork.ForkedFromID != source.RitualID {
		t.Fatalf("unexpected fork: %+v", fork)
	}
	if fork.Visibility != "private" {
		t.Fatalf("fork visibility = %q, want private", fork.Visibility)
	}

	// Private rituals cannot be forked.
	private := createRitual(t, mux, "owner", morningRequest())
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/rituals/"+private.RitualID+"/fork", nil, "forker", auth.ScopeRitualsWrite))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", rec.Code)
	}
}

func TestStreakEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/streak", nil, "user-1", auth.ScopeRitualsRead))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var streak StreakView
	decodeBody(t, rec, &streak)
	if streak.UserID != "user-1" || streak.CurrentStreak != 0 {
		t.Fatalf("unexpected streak: %+v", streak)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodDelete, "/v1/rituals", nil, "user-1", auth.ScopeRitualsWrite))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got status %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
}
