package dto

import (
	"time"

	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
)

type MatchedSkillResponse struct {
	RequiredSkillID   uuid.UUID `json:"required_skill_id"`
	RequiredSkillName string    `json:"required_skill_name"`
	CandidateSkillID  uuid.UUID `json:"candidate_skill_id"`
	CandidateSkill    string    `json:"candidate_skill_name"`
	Relation          string    `json:"relation"`
	Similarity        float64   `json:"similarity"`
	Importance        float64   `json:"importance"`
}

type MissingSkillResponse struct {
	SkillID   uuid.UUID `json:"skill_id"`
	SkillName string    `json:"skill_name"`
}

type MatchItemResponse struct {
	EntityID        uuid.UUID              `json:"entity_id"`
	Name            string                 `json:"name"`
	TotalScore      float64                `json:"total_score"`
	SkillScore      float64                `json:"skill_score"`
	PositionScore   float64                `json:"position_score"`
	EducationScore  float64                `json:"education_score"`
	ExperienceBonus float64                `json:"experience_bonus"`
	Salary          *int                   `json:"salary,omitempty"`
	ActivityAt      string                 `json:"activity_at,omitempty"`
	MatchedSkills   []MatchedSkillResponse `json:"matched_skills"`
	MissingSkills   []MissingSkillResponse `json:"missing_skills"`
}

type PageMetaResponse struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
}

type MatchPageResponse struct {
	Items []MatchItemResponse `json:"items"`
	Meta  PageMetaResponse    `json:"meta"`
}

// NewMatchItemResponse maps a scored entity. withSalary is false for
// candidate results, which carry no salary.
func NewMatchItemResponse(s matching.Scored, withSalary bool) MatchItemResponse {
	out := MatchItemResponse{
		EntityID:        s.EntityID,
		Name:            s.Name,
		TotalScore:      s.Result.TotalScore,
		SkillScore:      s.Result.SkillScore,
		PositionScore:   s.Result.PositionScore,
		EducationScore:  s.Result.EducationScore,
		ExperienceBonus: s.Result.ExperienceBonus,
		MatchedSkills:   make([]MatchedSkillResponse, 0, len(s.Result.MatchedSkills)),
		MissingSkills:   make([]MissingSkillResponse, 0, len(s.Result.MissingSkills)),
	}
	if withSalary && s.Salary > 0 {
		salary := s.Salary
		out.Salary = &salary
	}
	if !s.ActivityAt.IsZero() {
		out.ActivityAt = s.ActivityAt.UTC().Format(time.RFC3339)
	}
	for _, m := range s.Result.MatchedSkills {
		out.MatchedSkills = append(out.MatchedSkills, MatchedSkillResponse{
			RequiredSkillID:   m.RequiredID,
			RequiredSkillName: m.RequiredName,
			CandidateSkillID:  m.CandidateID,
			CandidateSkill:    m.SkillName,
			Relation:          string(m.Relation),
			Similarity:        m.Similarity,
			Importance:        m.Importance,
		})
	}
	for _, m := range s.Result.MissingSkills {
		out.MissingSkills = append(out.MissingSkills, MissingSkillResponse{SkillID: m.SkillID, SkillName: m.SkillName})
	}
	return out
}

func NewMatchPageResponse(p matching.Page, withSalary bool) MatchPageResponse {
	out := MatchPageResponse{
		Items: make([]MatchItemResponse, 0, len(p.Items)),
		Meta: PageMetaResponse{
			TotalItems:  p.TotalItems,
			TotalPages:  p.TotalPages,
			CurrentPage: p.CurrentPage,
			PageSize:    p.PageSize,
		},
	}
	for _, it := range p.Items {
		out.Items = append(out.Items, NewMatchItemResponse(it, withSalary))
	}
	return out
}

type TaxonomyReloadResponse struct {
	Version      string `json:"version"`
	Generation   uint64 `json:"generation"`
	Nodes        int    `json:"nodes"`
	LoadedAt     string `json:"loaded_at"`
	CacheEvicted int    `json:"cache_evicted"`
}
