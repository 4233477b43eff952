package matching

import (
	"time"

	"github.com/google/uuid"
)

type CandidateSkill struct {
	TaxonomyID      uuid.UUID
	Name            string
	ExperienceYears int
}

type RequiredSkill struct {
	TaxonomyID uuid.UUID
	Name       string
}

type EducationLevel struct {
	ID        uuid.UUID
	Name      string
	RankScore int
}

type Candidate struct {
	ID                   uuid.UUID
	FullName             string
	Skills               []CandidateSkill
	Educations           []EducationLevel
	Position             string
	TotalExperienceYears int
	ActivityAt           time.Time
}

type Job struct {
	ID                uuid.UUID
	Title             string
	CompanyName       string
	RequiredSkills    []RequiredSkill
	RequiredEducation *EducationLevel
	Position          string
	Location          string
	SalaryMin         *int
	SalaryMax         *int
	ActivityAt        time.Time
}

type Relation string

const (
	RelationNone       Relation = "none"
	RelationExact      Relation = "exact"
	RelationAncestor   Relation = "ancestor"
	RelationDescendant Relation = "descendant"
	RelationSibling    Relation = "sibling"
	RelationCousin     Relation = "cousin"
)

type MatchedSkill struct {
	RequiredID   uuid.UUID
	RequiredName string
	CandidateID  uuid.UUID
	SkillName    string
	Relation     Relation
	Similarity   float64
	Importance   float64
}

type MissingSkill struct {
	SkillID   uuid.UUID
	SkillName string
}

type Result struct {
	SkillScore      float64
	PositionScore   float64
	EducationScore  float64
	ExperienceBonus float64
	TotalScore      float64
	MatchedSkills   []MatchedSkill
	MissingSkills   []MissingSkill
}
