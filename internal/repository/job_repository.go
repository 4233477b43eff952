package repository

import (
	"context"
	"fmt"
	"time"

	"talent-match/internal/database"
	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
)

const JobStatusOpen = "open"

// JobRepository only exposes open, non-deleted jobs.
type JobRepository interface {
	// FindOpenByID returns nil, nil when the job does not exist or is not open.
	FindOpenByID(ctx context.Context, id uuid.UUID) (*matching.Job, error)
	ListOpen(ctx context.Context) ([]matching.Job, error)
}

type PostgresJobRepository struct {
	db database.Querier
}

func NewPostgresJobRepository(db database.Querier) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) FindOpenByID(ctx context.Context, id uuid.UUID) (*matching.Job, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	items, err := r.load(ctx, " AND j.id = $2", id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *PostgresJobRepository) ListOpen(ctx context.Context) ([]matching.Job, error) {
	return r.load(ctx, "")
}

// load uses $1 for the status; extra conditions start at $2.
func (r *PostgresJobRepository) load(ctx context.Context, cond string, extra ...any) ([]matching.Job, error) {
	args := append([]any{JobStatusOpen}, extra...)

	rows, err := r.db.Query(ctx,
		`SELECT j.id, j.title, j.company_name, j.position, j.location, j.salary_min, j.salary_max,
		        el.id, el.name, el.rank_score, j.updated_at
		 FROM jobs j
		 LEFT JOIN education_levels el ON el.id = j.required_education_level_id
		 WHERE j.status = $1 AND j.is_deleted = FALSE`+cond+`
		 ORDER BY j.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]matching.Job, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			j         matching.Job
			eduID     *uuid.UUID
			eduName   *string
			eduRank   *int
			updatedAt time.Time
		)
		if err := rows.Scan(
			&j.ID, &j.Title, &j.CompanyName, &j.Position, &j.Location, &j.SalaryMin, &j.SalaryMax,
			&eduID, &eduName, &eduRank, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if eduID != nil && *eduID != uuid.Nil {
			lvl := matching.EducationLevel{ID: *eduID}
			if eduName != nil {
				lvl.Name = *eduName
			}
			if eduRank != nil {
				lvl.RankScore = *eduRank
			}
			j.RequiredEducation = &lvl
		}
		j.ActivityAt = updatedAt.UTC()
		index[j.ID] = len(out)
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	skillRows, err := r.db.Query(ctx,
		`SELECT js.job_id, js.taxonomy_id, COALESCE(t.name, '')
		 FROM job_skills js
		 JOIN jobs j ON j.id = js.job_id
		 LEFT JOIN taxonomies t ON t.id = js.taxonomy_id
		 WHERE j.status = $1 AND j.is_deleted = FALSE`+cond+`
		 ORDER BY js.job_id ASC, js.taxonomy_id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list job skills: %w", err)
	}
	defer skillRows.Close()

	for skillRows.Next() {
		var (
			jobID uuid.UUID
			s     matching.RequiredSkill
		)
		if err := skillRows.Scan(&jobID, &s.TaxonomyID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan job skill: %w", err)
		}
		i, ok := index[jobID]
		if !ok {
			continue
		}
		out[i].RequiredSkills = append(out[i].RequiredSkills, s)
	}
	if err := skillRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job skills: %w", err)
	}
	return out, nil
}

var _ JobRepository = (*PostgresJobRepository)(nil)
