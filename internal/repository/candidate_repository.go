package repository

import (
	"context"
	"fmt"
	"time"

	"talent-match/internal/database"
	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
)

// CandidateRepository only exposes active candidates.
type CandidateRepository interface {
	// FindByID returns nil, nil when the candidate does not exist or is inactive.
	FindByID(ctx context.Context, id uuid.UUID) (*matching.Candidate, error)
	ListActive(ctx context.Context) ([]matching.Candidate, error)
}

type PostgresCandidateRepository struct {
	db database.Querier
}

func NewPostgresCandidateRepository(db database.Querier) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

func (r *PostgresCandidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*matching.Candidate, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	items, err := r.load(ctx, " AND c.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *PostgresCandidateRepository) ListActive(ctx context.Context) ([]matching.Candidate, error) {
	return r.load(ctx, "")
}

func (r *PostgresCandidateRepository) load(ctx context.Context, cond string, args ...any) ([]matching.Candidate, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.full_name, c.position, c.total_experience_years, c.updated_at
		 FROM candidates c
		 WHERE c.is_active = TRUE`+cond+`
		 ORDER BY c.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := make([]matching.Candidate, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			c         matching.Candidate
			updatedAt time.Time
		)
		if err := rows.Scan(&c.ID, &c.FullName, &c.Position, &c.TotalExperienceYears, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.ActivityAt = updatedAt.UTC()
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	if err := r.attachSkills(ctx, out, index, cond, args...); err != nil {
		return nil, err
	}
	if err := r.attachEducations(ctx, out, index, cond, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresCandidateRepository) attachSkills(ctx context.Context, out []matching.Candidate, index map[uuid.UUID]int, cond string, args ...any) error {
	rows, err := r.db.Query(ctx,
		`SELECT cs.candidate_id, cs.taxonomy_id, COALESCE(t.name, ''), cs.experience_years
		 FROM candidate_skills cs
		 JOIN candidates c ON c.id = cs.candidate_id
		 LEFT JOIN taxonomies t ON t.id = cs.taxonomy_id
		 WHERE c.is_active = TRUE`+cond+`
		 ORDER BY cs.candidate_id ASC, cs.taxonomy_id ASC`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("list candidate skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			candidateID uuid.UUID
			s           matching.CandidateSkill
		)
		if err := rows.Scan(&candidateID, &s.TaxonomyID, &s.Name, &s.ExperienceYears); err != nil {
			return fmt.Errorf("scan candidate skill: %w", err)
		}
		i, ok := index[candidateID]
		if !ok {
			continue
		}
		out[i].Skills = append(out[i].Skills, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate candidate skills: %w", err)
	}
	return nil
}

func (r *PostgresCandidateRepository) attachEducations(ctx context.Context, out []matching.Candidate, index map[uuid.UUID]int, cond string, args ...any) error {
	rows, err := r.db.Query(ctx,
		`SELECT ce.candidate_id, el.id, el.name, el.rank_score
		 FROM candidate_educations ce
		 JOIN candidates c ON c.id = ce.candidate_id
		 JOIN education_levels el ON el.id = ce.education_level_id
		 WHERE c.is_active = TRUE`+cond+`
		 ORDER BY ce.candidate_id ASC, el.rank_score DESC`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("list candidate educations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			candidateID uuid.UUID
			e           matching.EducationLevel
		)
		if err := rows.Scan(&candidateID, &e.ID, &e.Name, &e.RankScore); err != nil {
			return fmt.Errorf("scan candidate education: %w", err)
		}
		i, ok := index[candidateID]
		if !ok {
			continue
		}
		out[i].Educations = append(out[i].Educations, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate candidate educations: %w", err)
	}
	return nil
}

var _ CandidateRepository = (*PostgresCandidateRepository)(nil)
