package matching

import (
	"math"

	"talent-match/internal/domain/taxonomy"

	"github.com/google/uuid"
)

const (
	similarityExact       = 1.0
	similarityDescendant  = 0.9
	similarityAncestorTop = 0.8
	similarityAncestorMin = 0.3
	similarityAncestorDec = 0.1
	similaritySibling     = 0.4
	similarityCousin      = 0.2
)

type SkillMatch struct {
	Similarity float64
	Relation   Relation
}

// SkillSimilarity scores how well a candidate skill covers a required skill.
// Rules are tried in order and the first non-zero one wins.
func SkillSimilarity(g *taxonomy.Graph, candidateSkillID, requiredSkillID uuid.UUID) SkillMatch {
	if candidateSkillID == uuid.Nil || requiredSkillID == uuid.Nil {
		return SkillMatch{Relation: RelationNone}
	}
	// ids missing from the snapshot carry no signal, even when equal
	if !g.Has(candidateSkillID) || !g.Has(requiredSkillID) {
		return SkillMatch{Relation: RelationNone}
	}
	if candidateSkillID == requiredSkillID {
		return SkillMatch{Similarity: similarityExact, Relation: RelationExact}
	}

	// candidate holds the broader skill
	if depth := g.DepthBetween(candidateSkillID, requiredSkillID); depth != taxonomy.DepthNotFound {
		s := math.Max(similarityAncestorMin, similarityAncestorTop-similarityAncestorDec*float64(depth))
		return SkillMatch{Similarity: s, Relation: RelationAncestor}
	}
	if g.IsAncestorOf(requiredSkillID, candidateSkillID) {
		return SkillMatch{Similarity: similarityDescendant, Relation: RelationDescendant}
	}

	if cp, ok := g.Parent(candidateSkillID); ok {
		if rp, ok := g.Parent(requiredSkillID); ok && cp.ID == rp.ID {
			return SkillMatch{Similarity: similaritySibling, Relation: RelationSibling}
		}
	}

	if cg, ok := g.Grandparent(candidateSkillID); ok {
		if rg, ok := g.Grandparent(requiredSkillID); ok && cg.ID == rg.ID {
			return SkillMatch{Similarity: similarityCousin, Relation: RelationCousin}
		}
	}

	return SkillMatch{Relation: RelationNone}
}

// BestSimilarity returns the candidate skill that best covers the
// requirement. ok is false when nothing relates to it.
func BestSimilarity(g *taxonomy.Graph, skills []CandidateSkill, requiredSkillID uuid.UUID) (CandidateSkill, SkillMatch, bool) {
	var (
		best      CandidateSkill
		bestMatch = SkillMatch{Relation: RelationNone}
		found     bool
	)
	for _, s := range skills {
		m := SkillSimilarity(g, s.TaxonomyID, requiredSkillID)
		if m.Similarity > bestMatch.Similarity {
			best = s
			bestMatch = m
			found = true
			if m.Similarity >= similarityExact {
				break
			}
		}
	}
	return best, bestMatch, found
}

// SkillImportance weights a requirement by its depth in the hierarchy. Root
// and specific (level 3) skills matter most.
func SkillImportance(g *taxonomy.Graph, requiredSkillID uuid.UUID) float64 {
	switch g.HierarchyLevel(requiredSkillID) {
	case 0:
		return 1.0
	case 1:
		return 0.9
	case 2:
		return 0.8
	case 3:
		return 1.0
	default:
		return 0.7
	}
}
