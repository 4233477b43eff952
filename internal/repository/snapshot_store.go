package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"talent-match/internal/domain/matching"
	"talent-match/internal/domain/taxonomy"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// SnapshotFile is the on-disk layout read by LoadSnapshot. JSON files parse
// as well since JSON is valid YAML.
type SnapshotFile struct {
	Taxonomy        []SnapshotNode      `yaml:"taxonomy" json:"taxonomy"`
	EducationLevels []SnapshotEducation `yaml:"education_levels" json:"education_levels"`
	Candidates      []SnapshotCandidate `yaml:"candidates" json:"candidates"`
	Jobs            []SnapshotJob       `yaml:"jobs" json:"jobs"`
}

type SnapshotNode struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	ParentID string `yaml:"parent_id" json:"parent_id"`
	Type     string `yaml:"type" json:"type"`
}

type SnapshotEducation struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	RankScore int    `yaml:"rank_score" json:"rank_score"`
}

type SnapshotCandidateSkill struct {
	TaxonomyID      string `yaml:"taxonomy_id" json:"taxonomy_id"`
	ExperienceYears int    `yaml:"experience_years" json:"experience_years"`
}

type SnapshotCandidate struct {
	ID                   string                   `yaml:"id" json:"id"`
	FullName             string                   `yaml:"full_name" json:"full_name"`
	Position             string                   `yaml:"position" json:"position"`
	TotalExperienceYears int                      `yaml:"total_experience_years" json:"total_experience_years"`
	Inactive             bool                     `yaml:"inactive" json:"inactive"`
	ActivityAt           string                   `yaml:"activity_at" json:"activity_at"`
	Skills               []SnapshotCandidateSkill `yaml:"skills" json:"skills"`
	EducationLevelIDs    []string                 `yaml:"education_level_ids" json:"education_level_ids"`
}

type SnapshotJob struct {
	ID                       string   `yaml:"id" json:"id"`
	Title                    string   `yaml:"title" json:"title"`
	CompanyName              string   `yaml:"company_name" json:"company_name"`
	Position                 string   `yaml:"position" json:"position"`
	Location                 string   `yaml:"location" json:"location"`
	SalaryMin                *int     `yaml:"salary_min" json:"salary_min"`
	SalaryMax                *int     `yaml:"salary_max" json:"salary_max"`
	RequiredEducationLevelID string   `yaml:"required_education_level_id" json:"required_education_level_id"`
	Status                   string   `yaml:"status" json:"status"`
	Deleted                  bool     `yaml:"deleted" json:"deleted"`
	ActivityAt               string   `yaml:"activity_at" json:"activity_at"`
	RequiredSkillIDs         []string `yaml:"required_skill_ids" json:"required_skill_ids"`
}

// MemoryStore serves taxonomy, candidates and jobs from an in-memory
// snapshot. It is read-only after construction and safe for concurrent use.
type MemoryStore struct {
	nodes      []taxonomy.Node
	candidates []matching.Candidate
	jobs       []matching.Job
}

func NewMemoryStore(nodes []taxonomy.Node, candidates []matching.Candidate, jobs []matching.Job) *MemoryStore {
	return &MemoryStore{nodes: nodes, candidates: candidates, jobs: jobs}
}

func LoadSnapshot(path string) (*MemoryStore, error) {
	f, err := ReadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	return f.Build()
}

// ReadSnapshotFile decodes path without resolving it. Callers that need the
// raw rows, like the database seeder, should still call Build to validate.
func ReadSnapshotFile(path string) (*SnapshotFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var f SnapshotFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &f, nil
}

// Build resolves ids and names. Inactive candidates and jobs that are not
// open or are deleted are dropped, matching what the Postgres repositories
// return.
func (f SnapshotFile) Build() (*MemoryStore, error) {
	nodes := make([]taxonomy.Node, 0, len(f.Taxonomy))
	names := make(map[uuid.UUID]string, len(f.Taxonomy))
	for i, n := range f.Taxonomy {
		id, err := parseID(n.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: taxonomy[%d].id: %v", ErrInvalidSnapshot, i, err)
		}
		node := taxonomy.Node{ID: id, Name: strings.TrimSpace(n.Name), Type: taxonomy.NodeType(n.Type)}
		if node.Type == "" {
			node.Type = taxonomy.NodeTypeSkill
		}
		if strings.TrimSpace(n.ParentID) != "" {
			pid, err := parseID(n.ParentID)
			if err != nil {
				return nil, fmt.Errorf("%w: taxonomy[%d].parent_id: %v", ErrInvalidSnapshot, i, err)
			}
			node.ParentID = &pid
		}
		if _, dup := names[id]; !dup {
			names[id] = node.Name
		}
		nodes = append(nodes, node)
	}

	levels := make(map[uuid.UUID]matching.EducationLevel, len(f.EducationLevels))
	for i, e := range f.EducationLevels {
		id, err := parseID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: education_levels[%d].id: %v", ErrInvalidSnapshot, i, err)
		}
		levels[id] = matching.EducationLevel{ID: id, Name: e.Name, RankScore: e.RankScore}
	}

	candidates := make([]matching.Candidate, 0, len(f.Candidates))
	for i, c := range f.Candidates {
		if c.Inactive {
			continue
		}
		id, err := parseID(c.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: candidates[%d].id: %v", ErrInvalidSnapshot, i, err)
		}
		at, err := parseTime(c.ActivityAt)
		if err != nil {
			return nil, fmt.Errorf("%w: candidates[%d].activity_at: %v", ErrInvalidSnapshot, i, err)
		}
		out := matching.Candidate{
			ID:                   id,
			FullName:             c.FullName,
			Position:             c.Position,
			TotalExperienceYears: c.TotalExperienceYears,
			ActivityAt:           at,
		}
		for j, s := range c.Skills {
			sid, err := parseID(s.TaxonomyID)
			if err != nil {
				return nil, fmt.Errorf("%w: candidates[%d].skills[%d]: %v", ErrInvalidSnapshot, i, j, err)
			}
			out.Skills = append(out.Skills, matching.CandidateSkill{TaxonomyID: sid, Name: names[sid], ExperienceYears: s.ExperienceYears})
		}
		for j, raw := range c.EducationLevelIDs {
			eid, err := parseID(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: candidates[%d].education_level_ids[%d]: %v", ErrInvalidSnapshot, i, j, err)
			}
			lvl, ok := levels[eid]
			if !ok {
				return nil, fmt.Errorf("%w: candidates[%d]: unknown education level %s", ErrInvalidSnapshot, i, eid)
			}
			out.Educations = append(out.Educations, lvl)
		}
		candidates = append(candidates, out)
	}

	jobs := make([]matching.Job, 0, len(f.Jobs))
	for i, j := range f.Jobs {
		status := strings.ToLower(strings.TrimSpace(j.Status))
		if j.Deleted || (status != "" && status != JobStatusOpen) {
			continue
		}
		id, err := parseID(j.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: jobs[%d].id: %v", ErrInvalidSnapshot, i, err)
		}
		at, err := parseTime(j.ActivityAt)
		if err != nil {
			return nil, fmt.Errorf("%w: jobs[%d].activity_at: %v", ErrInvalidSnapshot, i, err)
		}
		out := matching.Job{
			ID:          id,
			Title:       j.Title,
			CompanyName: j.CompanyName,
			Position:    j.Position,
			Location:    j.Location,
			SalaryMin:   j.SalaryMin,
			SalaryMax:   j.SalaryMax,
			ActivityAt:  at,
		}
		if strings.TrimSpace(j.RequiredEducationLevelID) != "" {
			eid, err := parseID(j.RequiredEducationLevelID)
			if err != nil {
				return nil, fmt.Errorf("%w: jobs[%d].required_education_level_id: %v", ErrInvalidSnapshot, i, err)
			}
			lvl, ok := levels[eid]
			if !ok {
				return nil, fmt.Errorf("%w: jobs[%d]: unknown education level %s", ErrInvalidSnapshot, i, eid)
			}
			out.RequiredEducation = &lvl
		}
		for k, raw := range j.RequiredSkillIDs {
			sid, err := parseID(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: jobs[%d].required_skill_ids[%d]: %v", ErrInvalidSnapshot, i, k, err)
			}
			out.RequiredSkills = append(out.RequiredSkills, matching.RequiredSkill{TaxonomyID: sid, Name: names[sid]})
		}
		jobs = append(jobs, out)
	}

	return NewMemoryStore(nodes, candidates, jobs), nil
}

func parseID(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (s *MemoryStore) ListNodes(ctx context.Context) ([]taxonomy.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]taxonomy.Node, len(s.nodes))
	copy(out, s.nodes)
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*matching.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range s.candidates {
		if s.candidates[i].ID == id {
			c := s.candidates[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListActive(ctx context.Context) ([]matching.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]matching.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out, nil
}

func (s *MemoryStore) FindOpenByID(ctx context.Context, id uuid.UUID) (*matching.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			j := s.jobs[i]
			return &j, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListOpen(ctx context.Context) ([]matching.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]matching.Job, len(s.jobs))
	copy(out, s.jobs)
	return out, nil
}

var (
	_ TaxonomyRepository  = (*MemoryStore)(nil)
	_ CandidateRepository = (*MemoryStore)(nil)
	_ JobRepository       = (*MemoryStore)(nil)
)
