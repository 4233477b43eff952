package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"talent-match/internal/database"
	"talent-match/internal/repository"
)

// FromSnapshot returns the seeders that copy a snapshot file into Postgres,
// ordered so that foreign keys resolve. The file is validated first so a
// bad id never reaches the database half-applied.
func FromSnapshot(f *repository.SnapshotFile) ([]Seeder, error) {
	if f == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if _, err := f.Build(); err != nil {
		return nil, err
	}
	return []Seeder{
		TaxonomySeeder{Nodes: f.Taxonomy},
		EducationLevelSeeder{Levels: f.EducationLevels},
		CandidateSeeder{Candidates: f.Candidates},
		JobSeeder{Jobs: f.Jobs},
	}, nil
}

type TaxonomySeeder struct {
	Nodes []repository.SnapshotNode
}

func (TaxonomySeeder) Name() string { return "taxonomies" }

func (s TaxonomySeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "taxonomies", "id", "name", "parent_id", "type"); err != nil {
		return err
	}
	return inTx(ctx, db, func(tx database.Tx) error {
		for _, n := range s.Nodes {
			typ := strings.TrimSpace(n.Type)
			if typ == "" {
				typ = "skill"
			}
			_, err := tx.Exec(
				ctx,
				`INSERT INTO taxonomies (id, name, parent_id, type) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, parent_id = EXCLUDED.parent_id, type = EXCLUDED.type`,
				n.ID, n.Name, nullString(n.ParentID), typ,
			)
			if err != nil {
				return fmt.Errorf("insert taxonomy %s: %w", n.ID, err)
			}
		}
		return nil
	})
}

type EducationLevelSeeder struct {
	Levels []repository.SnapshotEducation
}

func (EducationLevelSeeder) Name() string { return "education_levels" }

func (s EducationLevelSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "education_levels", "id", "name", "rank_score"); err != nil {
		return err
	}
	return inTx(ctx, db, func(tx database.Tx) error {
		for _, e := range s.Levels {
			_, err := tx.Exec(
				ctx,
				`INSERT INTO education_levels (id, name, rank_score) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, rank_score = EXCLUDED.rank_score`,
				e.ID, e.Name, e.RankScore,
			)
			if err != nil {
				return fmt.Errorf("insert education level %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

type CandidateSeeder struct {
	Candidates []repository.SnapshotCandidate
}

func (CandidateSeeder) Name() string { return "candidates" }

func (s CandidateSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "candidates", "id", "full_name", "position", "total_experience_years", "is_active", "updated_at"); err != nil {
		return err
	}
	return inTx(ctx, db, func(tx database.Tx) error {
		for _, c := range s.Candidates {
			_, err := tx.Exec(
				ctx,
				`INSERT INTO candidates (id, full_name, position, total_experience_years, is_active, updated_at)
				VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
				ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name, position = EXCLUDED.position,
					total_experience_years = EXCLUDED.total_experience_years, is_active = EXCLUDED.is_active,
					updated_at = EXCLUDED.updated_at`,
				c.ID, c.FullName, c.Position, c.TotalExperienceYears, !c.Inactive, nullTime(c.ActivityAt),
			)
			if err != nil {
				return fmt.Errorf("insert candidate %s: %w", c.ID, err)
			}

			if _, err := tx.Exec(ctx, `DELETE FROM candidate_skills WHERE candidate_id = $1`, c.ID); err != nil {
				return err
			}
			for _, sk := range c.Skills {
				if _, err := tx.Exec(
					ctx,
					`INSERT INTO candidate_skills (candidate_id, taxonomy_id, experience_years) VALUES ($1, $2, $3)
					ON CONFLICT DO NOTHING`,
					c.ID, sk.TaxonomyID, sk.ExperienceYears,
				); err != nil {
					return fmt.Errorf("insert candidate skill %s/%s: %w", c.ID, sk.TaxonomyID, err)
				}
			}

			if _, err := tx.Exec(ctx, `DELETE FROM candidate_educations WHERE candidate_id = $1`, c.ID); err != nil {
				return err
			}
			for _, lvl := range c.EducationLevelIDs {
				if _, err := tx.Exec(
					ctx,
					`INSERT INTO candidate_educations (candidate_id, education_level_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
					c.ID, lvl,
				); err != nil {
					return fmt.Errorf("insert candidate education %s/%s: %w", c.ID, lvl, err)
				}
			}
		}
		return nil
	})
}

type JobSeeder struct {
	Jobs []repository.SnapshotJob
}

func (JobSeeder) Name() string { return "jobs" }

func (s JobSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "jobs", "id", "title", "company_name", "position", "location",
		"salary_min", "salary_max", "required_education_level_id", "status", "is_deleted", "updated_at"); err != nil {
		return err
	}
	return inTx(ctx, db, func(tx database.Tx) error {
		for _, j := range s.Jobs {
			status := strings.ToLower(strings.TrimSpace(j.Status))
			if status == "" {
				status = repository.JobStatusOpen
			}
			_, err := tx.Exec(
				ctx,
				`INSERT INTO jobs (id, title, company_name, position, location, salary_min, salary_max,
					required_education_level_id, status, is_deleted, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, now()))
				ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, company_name = EXCLUDED.company_name,
					position = EXCLUDED.position, location = EXCLUDED.location, salary_min = EXCLUDED.salary_min,
					salary_max = EXCLUDED.salary_max, required_education_level_id = EXCLUDED.required_education_level_id,
					status = EXCLUDED.status, is_deleted = EXCLUDED.is_deleted, updated_at = EXCLUDED.updated_at`,
				j.ID, j.Title, j.CompanyName, j.Position, j.Location, j.SalaryMin, j.SalaryMax,
				nullString(j.RequiredEducationLevelID), status, j.Deleted, nullTime(j.ActivityAt),
			)
			if err != nil {
				return fmt.Errorf("insert job %s: %w", j.ID, err)
			}

			if _, err := tx.Exec(ctx, `DELETE FROM job_skills WHERE job_id = $1`, j.ID); err != nil {
				return err
			}
			for _, sk := range j.RequiredSkillIDs {
				if _, err := tx.Exec(
					ctx,
					`INSERT INTO job_skills (job_id, taxonomy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
					j.ID, sk,
				); err != nil {
					return fmt.Errorf("insert job skill %s/%s: %w", j.ID, sk, err)
				}
			}
		}
		return nil
	})
}

func inTx(ctx context.Context, db database.DB, fn func(tx database.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
