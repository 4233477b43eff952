package matching

import (
	"strings"

	"github.com/google/uuid"
)

// Filters are cheap predicates applied before scoring to shrink the set of
// entities that reach the engine. Job searches use the location, salary and
// skill fields; candidate searches use skills, experience and education.
type Filters struct {
	Location         string
	SalaryMin        *int
	SalaryMax        *int
	RequiredSkillIDs []uuid.UUID
	MinExperience    *int
	MaxExperience    *int
	EducationLevelID *uuid.UUID
}

// NormalizeLocation lowercases s and collapses runs of whitespace. Search
// cache keys use the same form, so equal keys always filter alike.
func NormalizeLocation(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func (f Filters) MatchJob(j Job) bool {
	if loc := NormalizeLocation(f.Location); loc != "" {
		if !strings.Contains(NormalizeLocation(j.Location), loc) {
			return false
		}
	}
	if f.SalaryMin != nil {
		if j.SalaryMin == nil || *j.SalaryMin < *f.SalaryMin {
			return false
		}
	}
	if f.SalaryMax != nil {
		if j.SalaryMax == nil || *j.SalaryMax > *f.SalaryMax {
			return false
		}
	}
	if ids := f.skillSet(); len(ids) > 0 {
		hit := false
		for _, r := range j.RequiredSkills {
			if _, ok := ids[r.TaxonomyID]; ok {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (f Filters) MatchCandidate(c Candidate) bool {
	if f.MinExperience != nil && c.TotalExperienceYears < *f.MinExperience {
		return false
	}
	if f.MaxExperience != nil && c.TotalExperienceYears > *f.MaxExperience {
		return false
	}
	if ids := f.skillSet(); len(ids) > 0 {
		hit := false
		for _, s := range c.Skills {
			if _, ok := ids[s.TaxonomyID]; ok {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.EducationLevelID != nil && *f.EducationLevelID != uuid.Nil {
		hit := false
		for _, e := range c.Educations {
			if e.ID == *f.EducationLevelID {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (f Filters) skillSet() map[uuid.UUID]struct{} {
	if len(f.RequiredSkillIDs) == 0 {
		return nil
	}
	out := make(map[uuid.UUID]struct{}, len(f.RequiredSkillIDs))
	for _, id := range f.RequiredSkillIDs {
		if id == uuid.Nil {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

func FilterJobs(jobs []Job, f Filters) []Job {
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if f.MatchJob(j) {
			out = append(out, j)
		}
	}
	return out
}

func FilterCandidates(candidates []Candidate, f Filters) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f.MatchCandidate(c) {
			out = append(out, c)
		}
	}
	return out
}
