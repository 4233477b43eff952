package matching

import (
	"testing"

	"github.com/google/uuid"
)

func intp(v int) *int { return &v }

func TestFilters_MatchJob(t *testing.T) {
	goID, pyID := uuid.New(), uuid.New()
	j := Job{
		Location:       "Jakarta Selatan",
		SalaryMin:      intp(8000),
		SalaryMax:      intp(12000),
		RequiredSkills: []RequiredSkill{{TaxonomyID: goID}},
	}

	cases := []struct {
		name string
		f    Filters
		want bool
	}{
		{"no filters", Filters{}, true},
		{"location substring", Filters{Location: "jakarta"}, true},
		{"location miss", Filters{Location: "Bandung"}, false},
		{"salary min satisfied", Filters{SalaryMin: intp(8000)}, true},
		{"salary min not met", Filters{SalaryMin: intp(9000)}, false},
		{"salary max satisfied", Filters{SalaryMax: intp(15000)}, true},
		{"salary max exceeded", Filters{SalaryMax: intp(10000)}, false},
		{"skill any-of hit", Filters{RequiredSkillIDs: []uuid.UUID{pyID, goID}}, true},
		{"skill miss", Filters{RequiredSkillIDs: []uuid.UUID{pyID}}, false},
		{"candidate-only filters ignored", Filters{MinExperience: intp(50)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.MatchJob(j); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if (Filters{SalaryMin: intp(1)}).MatchJob(Job{}) {
		t.Fatalf("job without salary must fail an active salary bound")
	}
}

func TestFilters_MatchCandidate(t *testing.T) {
	goID := uuid.New()
	master := EducationLevel{ID: uuid.New(), RankScore: 4}
	c := Candidate{
		Skills:               []CandidateSkill{{TaxonomyID: goID}},
		Educations:           []EducationLevel{master},
		TotalExperienceYears: 5,
	}
	other := uuid.New()

	cases := []struct {
		name string
		f    Filters
		want bool
	}{
		{"no filters", Filters{}, true},
		{"experience in range", Filters{MinExperience: intp(3), MaxExperience: intp(5)}, true},
		{"experience too low", Filters{MinExperience: intp(6)}, false},
		{"experience too high", Filters{MaxExperience: intp(4)}, false},
		{"skill hit", Filters{RequiredSkillIDs: []uuid.UUID{goID}}, true},
		{"skill miss", Filters{RequiredSkillIDs: []uuid.UUID{other}}, false},
		{"education hit", Filters{EducationLevelID: &master.ID}, true},
		{"education miss", Filters{EducationLevelID: &other}, false},
		{"job-only filters ignored", Filters{Location: "nowhere"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.MatchCandidate(c); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFilterJobsAndCandidates(t *testing.T) {
	jobs := []Job{{Location: "Jakarta"}, {Location: "Bandung"}, {Location: "jakarta barat"}}
	if got := FilterJobs(jobs, Filters{Location: "Jakarta"}); len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(got))
	}

	cands := []Candidate{{TotalExperienceYears: 1}, {TotalExperienceYears: 8}}
	if got := FilterCandidates(cands, Filters{MinExperience: intp(2)}); len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got := FilterCandidates(nil, Filters{}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice")
	}
}

func TestNormalizeLocation_FiltersAlike(t *testing.T) {
	jobs := []Job{{Location: "New York"}, {Location: "new  york city"}, {Location: "Boston"}}
	inputs := []string{"new york", "new  york", "  NEW\tYork "}
	for _, in := range inputs {
		if got := NormalizeLocation(in); got != "new york" {
			t.Fatalf("expected %q, got %q", "new york", got)
		}
		if got := FilterJobs(jobs, Filters{Location: in}); len(got) != 2 {
			t.Fatalf("expected 2 jobs for %q, got %d", in, len(got))
		}
	}
}
