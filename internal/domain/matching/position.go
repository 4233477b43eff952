package matching

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	positionExact      = 100.0
	positionFullstack  = 85.0
	positionCategory   = 60.0
	positionKeywordCap = 40.0
	positionPerKeyword = 15.0
)

const FullstackCategory = "fullstack"

var ErrInvalidOntology = errors.New("invalid position ontology")

type PositionCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Ontology is the keyword table used to classify free-text position labels.
// Category order only matters for readability; any shared category scores
// the same.
type Ontology struct {
	Categories        []PositionCategory `yaml:"categories"`
	FullstackTriggers []string           `yaml:"fullstack_triggers"`
	Vocabulary        []string           `yaml:"vocabulary"`
}

func DefaultOntology() *Ontology {
	return &Ontology{
		Categories: []PositionCategory{
			{Name: "fullstack", Keywords: []string{"frontend", "backend", "web", "developer", "engineer"}},
			{Name: "frontend", Keywords: []string{"ui", "ux", "react", "vue", "angular", "javascript", "typescript"}},
			{Name: "backend", Keywords: []string{"api", "server", "database", "microservice", "java", "python", ".net", "nodejs"}},
			{Name: "mobile", Keywords: []string{"android", "ios", "react native", "flutter", "kotlin", "swift"}},
			{Name: "devops", Keywords: []string{"infrastructure", "deployment", "ci/cd", "docker", "kubernetes", "aws", "azure"}},
			{Name: "data", Keywords: []string{"analyst", "scientist", "engineer", "ml", "ai", "python", "sql"}},
			{Name: "qa", Keywords: []string{"tester", "automation", "quality", "test"}},
		},
		FullstackTriggers: []string{"fullstack", "full stack"},
		Vocabulary: []string{
			"developer", "engineer", "analyst", "architect", "manager", "lead",
			"senior", "junior", "intern", "specialist", "consultant",
		},
	}
}

// LoadOntology reads a YAML (or JSON) ontology file.
func LoadOntology(path string) (*Ontology, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ontology %s: %w", path, err)
	}
	var o Ontology
	if err := yaml.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("parse ontology %s: %w", path, err)
	}
	o.normalize()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (o *Ontology) Validate() error {
	if o == nil || len(o.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidOntology)
	}
	seen := make(map[string]struct{}, len(o.Categories))
	for _, c := range o.Categories {
		if c.Name == "" {
			return fmt.Errorf("%w: category without name", ErrInvalidOntology)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidOntology, c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("%w: category %q has no keywords", ErrInvalidOntology, c.Name)
		}
	}
	return nil
}

func (o *Ontology) normalize() {
	for i := range o.Categories {
		o.Categories[i].Name = strings.ToLower(strings.TrimSpace(o.Categories[i].Name))
		o.Categories[i].Keywords = lowerAll(o.Categories[i].Keywords)
	}
	o.FullstackTriggers = lowerAll(o.FullstackTriggers)
	o.Vocabulary = lowerAll(o.Vocabulary)
}

func (o *Ontology) category(name string) (PositionCategory, bool) {
	for _, c := range o.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return PositionCategory{}, false
}

// Score rates a candidate's position label against a job's, 0-100.
func (o *Ontology) Score(candidatePosition, requiredPosition string) float64 {
	if o == nil {
		o = DefaultOntology()
	}

	cand := strings.ToLower(strings.TrimSpace(candidatePosition))
	req := strings.ToLower(strings.TrimSpace(requiredPosition))
	if cand == "" || req == "" {
		return 0
	}
	if cand == req {
		return positionExact
	}

	if containsAny(cand, o.FullstackTriggers) {
		if fs, ok := o.category(FullstackCategory); ok && containsAny(req, fs.Keywords) {
			return positionFullstack
		}
	}

	for _, c := range o.Categories {
		if containsAny(cand, c.Keywords) && containsAny(req, c.Keywords) {
			return positionCategory
		}
	}

	common := 0
	for _, kw := range o.Vocabulary {
		if kw != "" && strings.Contains(cand, kw) && strings.Contains(req, kw) {
			common++
		}
	}
	if common > 0 {
		return math.Min(positionKeywordCap, float64(common)*positionPerKeyword)
	}
	return 0
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
