package matching

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.011
}

func newTestEngine(t *testing.T, tr tree) *Engine {
	t.Helper()
	e, err := NewEngine(tr.graph, DefaultOntology(), DefaultWeights())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngineScore_WeightedBlend(t *testing.T) {
	tr := newTree(t)
	e := newTestEngine(t, tr)

	c := Candidate{
		ID:                   uuid.New(),
		Skills:               []CandidateSkill{{TaxonomyID: tr.id("Spring Boot"), Name: "Spring Boot", ExperienceYears: 3}},
		Position:             "Backend Developer",
		TotalExperienceYears: 1,
	}
	j := Job{
		ID: uuid.New(),
		RequiredSkills: []RequiredSkill{
			{TaxonomyID: tr.id("Spring Ecosystem"), Name: "Spring Ecosystem"},
			{TaxonomyID: tr.id("Maven"), Name: "Maven"},
		},
		Position: "Backend Developer",
	}

	res := e.Score(c, j)
	if !near(res.SkillScore, 45) {
		t.Fatalf("expected skill score 45, got %v", res.SkillScore)
	}
	if res.EducationScore != 100 || res.PositionScore != 100 {
		t.Fatalf("unexpected component scores: %+v", res)
	}
	if res.ExperienceBonus != 1.0 {
		t.Fatalf("expected bonus 1.0, got %v", res.ExperienceBonus)
	}
	if !near(res.TotalScore, 67) {
		t.Fatalf("expected total 67, got %v", res.TotalScore)
	}
	if len(res.MatchedSkills) != 1 || res.MatchedSkills[0].Relation != RelationDescendant {
		t.Fatalf("unexpected matched skills: %+v", res.MatchedSkills)
	}
	if len(res.MissingSkills) != 1 || res.MissingSkills[0].SkillName != "Maven" {
		t.Fatalf("unexpected missing skills: %+v", res.MissingSkills)
	}
}

func TestEngineScore_ExperienceBonusAndClamp(t *testing.T) {
	tr := newTree(t)
	e := newTestEngine(t, tr)

	j := Job{
		ID:             uuid.New(),
		RequiredSkills: []RequiredSkill{{TaxonomyID: tr.id("Spring Ecosystem")}},
		Position:       "Java Developer",
	}
	c := Candidate{
		ID:       uuid.New(),
		Skills:   []CandidateSkill{{TaxonomyID: tr.id("Spring Boot")}},
		Position: "Java Developer",
	}

	cases := []struct {
		years     int
		wantBonus float64
		wantSkill float64
	}{
		{1, 1.0, 90},
		{7, 1.1, 99},
		{12, 1.2, 100},
	}
	for _, tc := range cases {
		c.TotalExperienceYears = tc.years
		res := e.Score(c, j)
		if res.ExperienceBonus != tc.wantBonus {
			t.Fatalf("years=%d: expected bonus %v, got %v", tc.years, tc.wantBonus, res.ExperienceBonus)
		}
		if !near(res.SkillScore, tc.wantSkill) {
			t.Fatalf("years=%d: expected skill %v, got %v", tc.years, tc.wantSkill, res.SkillScore)
		}
		if res.TotalScore < 0 || res.TotalScore > 100 {
			t.Fatalf("total out of bounds: %v", res.TotalScore)
		}
	}
}

func TestEngineScore_ImportanceWeighting(t *testing.T) {
	tr := newTree(t)
	e := newTestEngine(t, tr)

	// Spring Boot (level 3, weight 1.0) matched exactly; Spring Boot Actuator
	// (level 4, weight 0.7) covered by its parent at 0.7.
	j := Job{RequiredSkills: []RequiredSkill{
		{TaxonomyID: tr.id("Spring Boot")},
		{TaxonomyID: tr.id("Spring Boot Actuator")},
	}}
	c := Candidate{Skills: []CandidateSkill{{TaxonomyID: tr.id("Spring Boot")}, {TaxonomyID: tr.id("Python")}}}

	res := e.Score(c, j)
	want := 100 * (1.0 + 0.7*0.7) / 1.7
	if !near(res.SkillScore, want) {
		t.Fatalf("expected skill %v, got %v", want, res.SkillScore)
	}
}

func TestEngineScore_NoRequiredSkills(t *testing.T) {
	tr := newTree(t)
	e := newTestEngine(t, tr)

	res := e.Score(Candidate{TotalExperienceYears: 20}, Job{RequiredSkills: []RequiredSkill{{TaxonomyID: uuid.Nil}}})
	if res.SkillScore != NoRequirementSkillScore {
		t.Fatalf("expected neutral skill score, got %v", res.SkillScore)
	}
	if res.EducationScore != 100 {
		t.Fatalf("expected education 100 without requirement, got %v", res.EducationScore)
	}
	if !near(res.TotalScore, 0.6*50+0.2*100) {
		t.Fatalf("unexpected total %v", res.TotalScore)
	}
}

func TestEngineScore_UnknownTaxonomyIsZero(t *testing.T) {
	tr := newTree(t)
	e := newTestEngine(t, tr)

	stale := uuid.New()
	res := e.Score(
		Candidate{Skills: []CandidateSkill{{TaxonomyID: uuid.New()}}},
		Job{RequiredSkills: []RequiredSkill{{TaxonomyID: stale, Name: "Stale"}}},
	)
	if res.SkillScore != 0 {
		t.Fatalf("expected 0 skill score, got %v", res.SkillScore)
	}
	if len(res.MissingSkills) != 1 || res.MissingSkills[0].SkillID != stale {
		t.Fatalf("expected stale skill reported missing, got %+v", res.MissingSkills)
	}

	res = e.Score(
		Candidate{Skills: []CandidateSkill{{TaxonomyID: stale, Name: "Stale"}}},
		Job{RequiredSkills: []RequiredSkill{{TaxonomyID: stale, Name: "Stale"}}},
	)
	if res.SkillScore != 0 || len(res.MatchedSkills) != 0 {
		t.Fatalf("expected a shared stale id to stay unmatched, got %v %+v", res.SkillScore, res.MatchedSkills)
	}
}

func TestEngineScore_EducationRequirement(t *testing.T) {
	tr := newTree(t)
	e := newTestEngine(t, tr)

	bachelor := EducationLevel{ID: uuid.New(), Name: "Bachelor", RankScore: 3}
	master := EducationLevel{ID: uuid.New(), Name: "Master", RankScore: 4}
	j := Job{RequiredEducation: &bachelor}

	res := e.Score(Candidate{Educations: []EducationLevel{bachelor, master}}, j)
	if res.EducationScore != 90 {
		t.Fatalf("expected 90 for one rank over, got %v", res.EducationScore)
	}
	res = e.Score(Candidate{}, j)
	if res.EducationScore != 0 {
		t.Fatalf("expected 0 without education, got %v", res.EducationScore)
	}
}

func TestEngine_SafeScoreRecoversPanic(t *testing.T) {
	var e *Engine
	res, err := e.SafeScore(Candidate{ID: uuid.New()}, Job{ID: uuid.New(), RequiredSkills: []RequiredSkill{{TaxonomyID: uuid.New()}}})
	if err == nil {
		t.Fatalf("expected error from recovered panic")
	}
	if res.TotalScore != 0 {
		t.Fatalf("expected zero result, got %+v", res)
	}
}

func TestWeightsNormalized(t *testing.T) {
	w, err := Weights{Skill: 3, Education: 1, Position: 1}.Normalized()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !near(w.Skill, 0.6) || !near(w.Education, 0.2) || !near(w.Position, 0.2) {
		t.Fatalf("unexpected normalized weights: %+v", w)
	}

	if _, err := (Weights{}).Normalized(); !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights for zero weights, got %v", err)
	}
	if _, err := (Weights{Skill: -1, Position: 2}).Normalized(); !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights for negative weight, got %v", err)
	}
	if _, err := NewEngine(nil, nil, Weights{}); err == nil {
		t.Fatalf("expected NewEngine to reject invalid weights")
	}
}

func TestNormalizeScore(t *testing.T) {
	cases := map[float64]float64{-5: 0, 0: 0, 42.5: 42.5, 100: 100, 150: 100}
	for in, want := range cases {
		if got := NormalizeScore(in); got != want {
			t.Fatalf("NormalizeScore(%v): expected %v, got %v", in, want, got)
		}
	}
	if got := NormalizeScore(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to normalize to 0, got %v", got)
	}
}
