package seeder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"talent-match/internal/database"
	"talent-match/internal/repository"
)

type recordingDB struct {
	columns   []string
	execs     []string
	failOn    string
	commits   int
	rollbacks int
}

func (d *recordingDB) Ping(context.Context) error { return nil }
func (d *recordingDB) Close() error               { return nil }

func (d *recordingDB) Exec(context.Context, string, ...any) (int64, error) {
	return 0, errors.New("not supported")
}

func (d *recordingDB) Query(context.Context, string, ...any) (database.Rows, error) {
	return &columnRows{cols: d.columns, pos: -1}, nil
}

func (d *recordingDB) QueryRow(context.Context, string, ...any) database.Row { return nil }

func (d *recordingDB) Begin(context.Context) (database.Tx, error) {
	return &recordingTx{db: d}, nil
}

type recordingTx struct {
	db   *recordingDB
	done bool
}

func (t *recordingTx) Exec(_ context.Context, query string, _ ...any) (int64, error) {
	if t.db.failOn != "" && strings.Contains(query, t.db.failOn) {
		return 0, errors.New("boom")
	}
	t.db.execs = append(t.db.execs, query)
	return 1, nil
}

func (t *recordingTx) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errors.New("not supported")
}

func (t *recordingTx) QueryRow(context.Context, string, ...any) database.Row { return nil }

func (t *recordingTx) Commit(context.Context) error {
	t.done = true
	t.db.commits++
	return nil
}

func (t *recordingTx) Rollback(context.Context) error {
	if !t.done {
		t.db.rollbacks++
	}
	return nil
}

type columnRows struct {
	cols []string
	pos  int
}

func (r *columnRows) Close()     {}
func (r *columnRows) Err() error { return nil }
func (r *columnRows) Next() bool {
	r.pos++
	return r.pos < len(r.cols)
}
func (r *columnRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.cols[r.pos]
	return nil
}

var allColumns = []string{
	"id", "name", "parent_id", "type", "rank_score", "full_name", "position", "total_experience_years",
	"is_active", "updated_at", "title", "company_name", "location", "salary_min", "salary_max",
	"required_education_level_id", "status", "is_deleted",
}

func sampleSnapshot() *repository.SnapshotFile {
	return &repository.SnapshotFile{
		Taxonomy: []repository.SnapshotNode{
			{ID: "11111111-1111-1111-1111-111111111111", Name: "Java"},
			{ID: "22222222-2222-2222-2222-222222222222", Name: "Spring", ParentID: "11111111-1111-1111-1111-111111111111"},
		},
		EducationLevels: []repository.SnapshotEducation{
			{ID: "33333333-3333-3333-3333-333333333333", Name: "Bachelor", RankScore: 80},
		},
		Candidates: []repository.SnapshotCandidate{{
			ID:                "44444444-4444-4444-4444-444444444444",
			FullName:          "Ada",
			Skills:            []repository.SnapshotCandidateSkill{{TaxonomyID: "11111111-1111-1111-1111-111111111111", ExperienceYears: 3}},
			EducationLevelIDs: []string{"33333333-3333-3333-3333-333333333333"},
		}},
		Jobs: []repository.SnapshotJob{{
			ID:               "55555555-5555-5555-5555-555555555555",
			Title:            "Backend",
			RequiredSkillIDs: []string{"22222222-2222-2222-2222-222222222222"},
		}},
	}
}

func TestFromSnapshot_SeedsEveryTableInOrder(t *testing.T) {
	seeders, err := FromSnapshot(sampleSnapshot())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	db := &recordingDB{columns: allColumns}
	if err := (Runner{Seeders: seeders}).Run(context.Background(), db); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if db.commits != 4 {
		t.Fatalf("expected one commit per seeder, got %d", db.commits)
	}

	want := []string{
		"INSERT INTO taxonomies", "INSERT INTO taxonomies",
		"INSERT INTO education_levels",
		"INSERT INTO candidates", "DELETE FROM candidate_skills", "INSERT INTO candidate_skills",
		"DELETE FROM candidate_educations", "INSERT INTO candidate_educations",
		"INSERT INTO jobs", "DELETE FROM job_skills", "INSERT INTO job_skills",
	}
	if len(db.execs) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(db.execs))
	}
	for i, w := range want {
		if !strings.Contains(db.execs[i], w) {
			t.Fatalf("statement %d: expected %q, got %q", i, w, db.execs[i])
		}
	}
}

func TestFromSnapshot_RejectsInvalidIDs(t *testing.T) {
	f := sampleSnapshot()
	f.Taxonomy[0].ID = "nope"
	if _, err := FromSnapshot(f); !errors.Is(err, repository.ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestRunner_StopsAndRollsBackOnFailure(t *testing.T) {
	seeders, err := FromSnapshot(sampleSnapshot())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	db := &recordingDB{columns: allColumns, failOn: "INSERT INTO education_levels"}
	err = (Runner{Seeders: seeders}).Run(context.Background(), db)
	if err == nil || !strings.Contains(err.Error(), "seed education_levels") {
		t.Fatalf("expected education_levels failure, got %v", err)
	}
	if db.commits != 1 || db.rollbacks != 1 {
		t.Fatalf("expected 1 commit and 1 rollback, got %d/%d", db.commits, db.rollbacks)
	}
}

func TestEnsureTableColumns_MissingColumn(t *testing.T) {
	db := &recordingDB{columns: []string{"id"}}
	err := EnsureTableColumns(context.Background(), db, "taxonomies", "id", "name")
	if err == nil || !strings.Contains(err.Error(), "taxonomies.name") {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
