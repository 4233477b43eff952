package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/domain/matching"
	"talent-match/internal/domain/taxonomy"
	"talent-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type fakeMatchingUsecase struct {
	jobParams       usecase.JobSearchParams
	candidateParams usecase.CandidateSearchParams
	page            matching.Page
	scored          matching.Scored
	err             error
	calls           int
}

func (f *fakeMatchingUsecase) SearchJobsForCandidate(_ context.Context, p usecase.JobSearchParams) (matching.Page, error) {
	f.calls++
	f.jobParams = p
	return f.page, f.err
}

func (f *fakeMatchingUsecase) SearchCandidatesForJob(_ context.Context, p usecase.CandidateSearchParams) (matching.Page, error) {
	f.calls++
	f.candidateParams = p
	return f.page, f.err
}

func (f *fakeMatchingUsecase) CalculateMatch(context.Context, uuid.UUID, uuid.UUID) (matching.Scored, error) {
	f.calls++
	return f.scored, f.err
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	register(app.Group("/api/v1"))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (int, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", string(b), err)
	}
	return resp.StatusCode, env
}

func TestMatchHandler_SearchJobsParsesQuery(t *testing.T) {
	salary := 9000
	uc := &fakeMatchingUsecase{page: matching.Page{
		Items: []matching.Scored{{
			EntityID:   uuid.New(),
			Name:       "Backend Engineer",
			Salary:     salary,
			ActivityAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Result:     matching.Result{TotalScore: 87.5, SkillScore: 90},
		}},
		TotalItems: 1, TotalPages: 1, CurrentPage: 2, PageSize: 5,
	}}
	app := newTestApp(NewMatchHandler(uc).RegisterRoutes)

	cid := uuid.New()
	skill := uuid.New()
	target := fmt.Sprintf("/api/v1/candidates/%s/jobs/search?page=2&size=5&sort_by=salary&descending=false&location=Jakarta&salary_min=5000&skill_ids=%s", cid, skill)
	status, env := doRequest(t, app, http.MethodGet, target)
	if status != fiber.StatusOK || env.Status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, env.Message)
	}

	p := uc.jobParams
	if p.CandidateID != cid || p.Page != 2 || p.Size != 5 || p.SortBy != matching.SortBySalary || p.Descending {
		t.Fatalf("unexpected params: %+v", p)
	}
	if p.Filters.Location != "Jakarta" || p.Filters.SalaryMin == nil || *p.Filters.SalaryMin != 5000 || p.Filters.SalaryMax != nil {
		t.Fatalf("unexpected filters: %+v", p.Filters)
	}
	if len(p.Filters.RequiredSkillIDs) != 1 || p.Filters.RequiredSkillIDs[0] != skill {
		t.Fatalf("unexpected skill ids: %v", p.Filters.RequiredSkillIDs)
	}

	var data struct {
		Items []struct {
			Name       string  `json:"name"`
			TotalScore float64 `json:"total_score"`
			Salary     *int    `json:"salary"`
			ActivityAt string  `json:"activity_at"`
		} `json:"items"`
		Meta struct {
			CurrentPage int `json:"current_page"`
			PageSize    int `json:"page_size"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if len(data.Items) != 1 || data.Items[0].TotalScore != 87.5 || data.Items[0].Salary == nil || *data.Items[0].Salary != salary {
		t.Fatalf("unexpected items: %+v", data.Items)
	}
	if data.Items[0].ActivityAt != "2026-03-01T00:00:00Z" {
		t.Fatalf("unexpected activity_at: %s", data.Items[0].ActivityAt)
	}
	if data.Meta.CurrentPage != 2 || data.Meta.PageSize != 5 {
		t.Fatalf("unexpected meta: %+v", data.Meta)
	}
}

func TestMatchHandler_SearchJobsDefaults(t *testing.T) {
	uc := &fakeMatchingUsecase{}
	app := newTestApp(NewMatchHandler(uc).RegisterRoutes)

	status, _ := doRequest(t, app, http.MethodGet, "/api/v1/candidates/"+uuid.NewString()+"/jobs/search")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	p := uc.jobParams
	if p.Page != defaultPage || p.Size != defaultSize || p.SortBy != matching.SortByScore || !p.Descending {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestMatchHandler_SearchCandidatesParsesFilters(t *testing.T) {
	uc := &fakeMatchingUsecase{}
	app := newTestApp(NewMatchHandler(uc).RegisterRoutes)

	jid := uuid.New()
	lvl := uuid.New()
	target := fmt.Sprintf("/api/v1/jobs/%s/candidates/search?min_experience=2&max_experience=8&education_level_id=%s", jid, lvl)
	status, _ := doRequest(t, app, http.MethodGet, target)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	f := uc.candidateParams.Filters
	if uc.candidateParams.JobID != jid || f.MinExperience == nil || *f.MinExperience != 2 || f.MaxExperience == nil || *f.MaxExperience != 8 {
		t.Fatalf("unexpected params: %+v", uc.candidateParams)
	}
	if f.EducationLevelID == nil || *f.EducationLevelID != lvl {
		t.Fatalf("unexpected education filter: %v", f.EducationLevelID)
	}
}

func TestMatchHandler_BadInputNeverReachesUsecase(t *testing.T) {
	cases := []string{
		"/api/v1/candidates/not-a-uuid/jobs/search",
		"/api/v1/candidates/" + uuid.NewString() + "/jobs/search?page=abc",
		"/api/v1/candidates/" + uuid.NewString() + "/jobs/search?descending=maybe",
		"/api/v1/candidates/" + uuid.NewString() + "/jobs/search?skill_ids=x,y",
		"/api/v1/jobs/" + uuid.NewString() + "/candidates/search?education_level_id=zz",
		"/api/v1/candidates/" + uuid.NewString() + "/jobs/nope/match",
	}
	for _, target := range cases {
		uc := &fakeMatchingUsecase{}
		app := newTestApp(NewMatchHandler(uc).RegisterRoutes)
		status, env := doRequest(t, app, http.MethodGet, target)
		if status != fiber.StatusBadRequest || env.Status != fiber.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, status)
		}
		if uc.calls != 0 {
			t.Fatalf("%s: expected usecase not to be called", target)
		}
	}
}

func TestMatchHandler_MapsUsecaseErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: size", usecase.ErrInvalidInput), fiber.StatusBadRequest},
		{usecase.ErrCandidateNotFound, fiber.StatusNotFound},
		{usecase.ErrJobNotFound, fiber.StatusNotFound},
		{fmt.Errorf("score: %w", context.DeadlineExceeded), fiber.StatusRequestTimeout},
		{usecase.ErrInternal, fiber.StatusInternalServerError},
		{errors.New("connection reset by peer"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		uc := &fakeMatchingUsecase{err: tc.err}
		app := newTestApp(NewMatchHandler(uc).RegisterRoutes)
		status, env := doRequest(t, app, http.MethodGet, "/api/v1/candidates/"+uuid.NewString()+"/jobs/"+uuid.NewString()+"/match")
		if status != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, status)
		}
		if status == fiber.StatusInternalServerError && env.Message != "internal server error" {
			t.Fatalf("expected internal details to be hidden, got %q", env.Message)
		}
	}
}

func TestMatchHandler_GetMatch(t *testing.T) {
	skillID := uuid.New()
	uc := &fakeMatchingUsecase{scored: matching.Scored{
		EntityID: uuid.New(),
		Name:     "Platform Engineer",
		Result: matching.Result{
			TotalScore:    70,
			MissingSkills: []matching.MissingSkill{{SkillID: skillID, SkillName: "Kafka"}},
		},
	}}
	app := newTestApp(NewMatchHandler(uc).RegisterRoutes)

	status, env := doRequest(t, app, http.MethodGet, "/api/v1/candidates/"+uuid.NewString()+"/jobs/"+uuid.NewString()+"/match")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var data struct {
		Name          string `json:"name"`
		MatchedSkills []any  `json:"matched_skills"`
		MissingSkills []struct {
			SkillID   uuid.UUID `json:"skill_id"`
			SkillName string    `json:"skill_name"`
		} `json:"missing_skills"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if data.Name != "Platform Engineer" || data.MatchedSkills == nil || len(data.MissingSkills) != 1 || data.MissingSkills[0].SkillID != skillID {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

type fakeRefresher struct {
	view *usecase.TaxonomyView
	err  error
}

func (f fakeRefresher) Refresh(context.Context) (*usecase.TaxonomyView, error) {
	return f.view, f.err
}

type fakeEvicter struct {
	pattern string
	n       int
	err     error
}

func (f *fakeEvicter) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	f.pattern = pattern
	return f.n, f.err
}

func TestTaxonomyHandler_Reload(t *testing.T) {
	view := &usecase.TaxonomyView{
		Graph:      taxonomy.NewGraph([]taxonomy.Node{{ID: uuid.New(), Name: "Go"}}),
		Version:    "abc123",
		Generation: 3,
		LoadedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	ev := &fakeEvicter{n: 7}
	app := newTestApp(NewTaxonomyHandler(fakeRefresher{view: view}, ev, nil).RegisterRoutes)

	status, env := doRequest(t, app, http.MethodPost, "/api/v1/taxonomy/reload")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if ev.pattern != searchCachePattern {
		t.Fatalf("expected search cache eviction, got %q", ev.pattern)
	}
	var data struct {
		Version      string `json:"version"`
		Generation   uint64 `json:"generation"`
		Nodes        int    `json:"nodes"`
		CacheEvicted int    `json:"cache_evicted"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if data.Version != "abc123" || data.Generation != 3 || data.Nodes != 1 || data.CacheEvicted != 7 {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

func TestTaxonomyHandler_ReloadFailure(t *testing.T) {
	app := newTestApp(NewTaxonomyHandler(fakeRefresher{err: errors.New("db down")}, nil, nil).RegisterRoutes)
	status, env := doRequest(t, app, http.MethodPost, "/api/v1/taxonomy/reload")
	if status != fiber.StatusInternalServerError || env.Message != "internal server error" {
		t.Fatalf("expected masked 500, got %d %q", status, env.Message)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	app := newTestApp(NewHealthHandler(fakePinger{}).RegisterRoutes)
	if status, _ := doRequest(t, app, http.MethodGet, "/api/v1/health"); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	app = newTestApp(NewHealthHandler(fakePinger{err: errors.New("down")}).RegisterRoutes)
	if status, _ := doRequest(t, app, http.MethodGet, "/api/v1/health"); status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
}
