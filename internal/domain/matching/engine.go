package matching

import (
	"errors"
	"fmt"
	"math"

	"talent-match/internal/domain/taxonomy"

	"github.com/google/uuid"
)

// NoRequirementSkillScore is the neutral skill score for a job that lists no
// required skills.
const NoRequirementSkillScore = 50.0

var ErrInvalidWeights = errors.New("invalid matching weights")

// Weights blends the component scores into the total. They are normalized to
// sum to 1 before use.
type Weights struct {
	Skill     float64
	Education float64
	Position  float64
}

func DefaultWeights() Weights {
	return Weights{Skill: 0.6, Education: 0.2, Position: 0.2}
}

func (w Weights) Normalized() (Weights, error) {
	if w.Skill < 0 || w.Education < 0 || w.Position < 0 {
		return Weights{}, fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	sum := w.Skill + w.Education + w.Position
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return Weights{}, fmt.Errorf("%w: weights must sum to a positive number", ErrInvalidWeights)
	}
	return Weights{Skill: w.Skill / sum, Education: w.Education / sum, Position: w.Position / sum}, nil
}

// Engine scores candidate/job pairs against one taxonomy snapshot. It holds
// no mutable state and may be shared by concurrent workers.
type Engine struct {
	graph    *taxonomy.Graph
	ontology *Ontology
	weights  Weights
}

func NewEngine(graph *taxonomy.Graph, ontology *Ontology, weights Weights) (*Engine, error) {
	w, err := weights.Normalized()
	if err != nil {
		return nil, err
	}
	if ontology == nil {
		ontology = DefaultOntology()
	}
	if graph == nil {
		graph = taxonomy.NewGraph(nil)
	}
	return &Engine{graph: graph, ontology: ontology, weights: w}, nil
}

func (e *Engine) Graph() *taxonomy.Graph {
	return e.graph
}

func (e *Engine) Score(c Candidate, j Job) Result {
	bonus := ExperienceBonus(c.TotalExperienceYears)
	skillScore, matched, missing := e.skillScore(c, j, bonus)

	eduScore := float64(EducationScore(HighestEducation(c.Educations), j.RequiredEducation))
	posScore := e.ontology.Score(c.Position, j.Position)

	total := e.weights.Skill*skillScore + e.weights.Education*eduScore + e.weights.Position*posScore

	return Result{
		SkillScore:      round2(skillScore),
		PositionScore:   round2(posScore),
		EducationScore:  round2(eduScore),
		ExperienceBonus: bonus,
		TotalScore:      round2(NormalizeScore(total)),
		MatchedSkills:   matched,
		MissingSkills:   missing,
	}
}

// SafeScore is Score with panic isolation: a bad pair yields a zero result
// and an error instead of taking down the batch.
func (e *Engine) SafeScore(c Candidate, j Job) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("score candidate=%s job=%s: panic: %v", c.ID, j.ID, r)
		}
	}()
	return e.Score(c, j), nil
}

func (e *Engine) skillScore(c Candidate, j Job, bonus float64) (float64, []MatchedSkill, []MissingSkill) {
	matched := make([]MatchedSkill, 0, len(j.RequiredSkills))
	missing := make([]MissingSkill, 0)

	var weighted, maxWeighted float64
	for _, r := range j.RequiredSkills {
		if r.TaxonomyID == uuid.Nil {
			continue
		}
		importance := SkillImportance(e.graph, r.TaxonomyID)
		maxWeighted += importance

		best, m, ok := BestSimilarity(e.graph, c.Skills, r.TaxonomyID)
		if !ok {
			missing = append(missing, MissingSkill{SkillID: r.TaxonomyID, SkillName: r.Name})
			continue
		}
		weighted += importance * m.Similarity
		matched = append(matched, MatchedSkill{
			RequiredID:   r.TaxonomyID,
			RequiredName: r.Name,
			CandidateID:  best.TaxonomyID,
			SkillName:    best.Name,
			Relation:     m.Relation,
			Similarity:   m.Similarity,
			Importance:   importance,
		})
	}

	if maxWeighted == 0 {
		return NoRequirementSkillScore, matched, missing
	}
	return NormalizeScore(100 * (weighted / maxWeighted) * bonus), matched, missing
}

func NormalizeScore(raw float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	return math.Min(100, math.Max(0, raw))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
