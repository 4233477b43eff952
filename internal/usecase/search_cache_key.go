package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
)

const (
	searchKindJobs       = "jobs"
	searchKindCandidates = "candidates"

	searchKeyPrefix  = "match:search:"
	searchLockPrefix = "match:lock:"
)

type matchSearchCacheKeyInput struct {
	Kind             string           `json:"kind"`
	Taxonomy         string           `json:"taxonomy"`
	Subject          uuid.UUID        `json:"subject"`
	Page             int              `json:"page"`
	Size             int              `json:"size"`
	SortBy           matching.SortBy  `json:"sort_by"`
	Descending       bool             `json:"descending"`
	Location         string           `json:"location,omitempty"`
	SalaryMin        *int             `json:"salary_min,omitempty"`
	SalaryMax        *int             `json:"salary_max,omitempty"`
	SkillIDs         []string         `json:"skill_ids,omitempty"`
	MinExperience    *int             `json:"min_experience,omitempty"`
	MaxExperience    *int             `json:"max_experience,omitempty"`
	EducationLevelID string           `json:"education_level_id,omitempty"`
	Weights          matching.Weights `json:"weights"`
}

// MatchSearchCacheKey derives a stable key for one ranked page. The taxonomy
// fingerprint is part of the key so a reload never serves pages scored
// against an older graph.
func MatchSearchCacheKey(kind, taxonomyVersion string, subject uuid.UUID, page, size int, sortBy matching.SortBy, descending bool, f matching.Filters, w matching.Weights) string {
	skills := make([]string, 0, len(f.RequiredSkillIDs))
	seen := make(map[uuid.UUID]struct{}, len(f.RequiredSkillIDs))
	for _, id := range f.RequiredSkillIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		skills = append(skills, id.String())
	}
	sort.Strings(skills)

	in := matchSearchCacheKeyInput{
		Kind:          kind,
		Taxonomy:      taxonomyVersion,
		Subject:       subject,
		Page:          page,
		Size:          size,
		SortBy:        sortBy,
		Descending:    descending,
		Location:      matching.NormalizeLocation(f.Location),
		SalaryMin:     f.SalaryMin,
		SalaryMax:     f.SalaryMax,
		SkillIDs:      skills,
		MinExperience: f.MinExperience,
		MaxExperience: f.MaxExperience,
		Weights:       w,
	}
	if f.EducationLevelID != nil && *f.EducationLevelID != uuid.Nil {
		in.EducationLevelID = f.EducationLevelID.String()
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return searchKeyPrefix + kind + ":" + hex.EncodeToString(sum[:])
}

func MatchSearchLockKey(searchKey string) string {
	searchKey = strings.TrimSpace(searchKey)
	return searchLockPrefix + strings.TrimPrefix(searchKey, searchKeyPrefix)
}
