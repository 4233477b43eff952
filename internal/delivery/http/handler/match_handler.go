package handler

import (
	"context"
	"errors"

	"talent-match/internal/delivery/http/dto"
	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/domain/matching"
	"talent-match/internal/pkg/response"
	"talent-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	defaultPage = 1
	defaultSize = 10
)

type MatchHandler struct {
	uc usecase.MatchingUsecase
}

func NewMatchHandler(uc usecase.MatchingUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/candidates/:candidate_id/jobs/search", h.SearchJobs)
	r.Get("/candidates/:candidate_id/jobs/:job_id/match", h.GetMatch)
	r.Get("/jobs/:job_id/candidates/search", h.SearchCandidates)
}

func (h *MatchHandler) SearchJobs(c fiber.Ctx) error {
	candidateID, err := uuid.Parse(c.Params("candidate_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid candidate id", nil, err)
	}
	page, size, err := parsePaging(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	descending, err := parseQueryBoolStrict(c, "descending", true)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	var f matching.Filters
	f.Location = c.Query("location")
	if f.SalaryMin, err = parseQueryOptionalInt(c, "salary_min"); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if f.SalaryMax, err = parseQueryOptionalInt(c, "salary_max"); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if f.RequiredSkillIDs, err = parseUUIDList(c.Query("skill_ids")); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid skill_ids", nil, err)
	}

	res, err := h.uc.SearchJobsForCandidate(c.Context(), usecase.JobSearchParams{
		CandidateID: candidateID,
		Page:        page,
		Size:        size,
		SortBy:      matching.ParseSortBy(c.Query("sort_by")),
		Descending:  descending,
		Filters:     f,
	})
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchPageResponse(res, true))
}

func (h *MatchHandler) SearchCandidates(c fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}
	page, size, err := parsePaging(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	var f matching.Filters
	if f.MinExperience, err = parseQueryOptionalInt(c, "min_experience"); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if f.MaxExperience, err = parseQueryOptionalInt(c, "max_experience"); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if f.RequiredSkillIDs, err = parseUUIDList(c.Query("skill_ids")); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid skill_ids", nil, err)
	}
	if s := c.Query("education_level_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid education_level_id", nil, err)
		}
		f.EducationLevelID = &id
	}

	res, err := h.uc.SearchCandidatesForJob(c.Context(), usecase.CandidateSearchParams{
		JobID:   jobID,
		Page:    page,
		Size:    size,
		Filters: f,
	})
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchPageResponse(res, false))
}

func (h *MatchHandler) GetMatch(c fiber.Ctx) error {
	candidateID, err := uuid.Parse(c.Params("candidate_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid candidate id", nil, err)
	}
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	res, err := h.uc.CalculateMatch(c.Context(), candidateID, jobID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchItemResponse(res, true))
}

func parsePaging(c fiber.Ctx) (int, int, error) {
	page, err := parseQueryIntStrict(c, "page", defaultPage)
	if err != nil {
		return 0, 0, err
	}
	size, err := parseQueryIntStrict(c, "size", defaultSize)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func mapMatchingUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrCandidateNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Candidate not found", nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
	case errors.Is(err, context.DeadlineExceeded):
		return middleware.NewAppError(fiber.StatusRequestTimeout, response.MessageRequestTimeout, nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
