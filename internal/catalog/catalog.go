package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var ErrEmptyCatalog = errors.New("skill catalog is empty")

// Catalog is an immutable lookup of skills by id. It is safe for concurrent
// reads because nothing mutates it after New returns.
type Catalog struct {
	byID  map[int]Skill
	order []int
}

// New validates every skill and builds a Catalog. A single invalid entry
// fails the whole catalog.
//
// Postcondition: Returns a Catalog holding all skills, or an error listing every violation.
func New(skills []Skill) (*Catalog, error) {
	if len(skills) == 0 {
		return nil, ErrEmptyCatalog
	}

	var errs error
	c := &Catalog{byID: make(map[int]Skill, len(skills))}
	for i, s := range skills {
		if err := validateSkill(s); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("skill[%d] (id %d): %w", i, s.ID, err))
			continue
		}
		if _, dup := c.byID[s.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("skill[%d]: duplicate id %d", i, s.ID))
			continue
		}
		c.byID[s.ID] = s
		c.order = append(c.order, s.ID)
	}
	if errs != nil {
		return nil, errs
	}
	sort.Ints(c.order)
	return c, nil
}

func validateSkill(s Skill) error {
	var errs error
	if s.ID <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("id must be > 0, got %d", s.ID))
	}
	if strings.TrimSpace(s.Name) == "" {
		errs = multierr.Append(errs, errors.New("name must not be empty"))
	}
	if s.Cost < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cost must be >= 0, got %d", s.Cost))
	}
	if _, err := ParseSkillType(string(s.Type)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := ParseStat(string(s.StatDependency)); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("stat_dependency: %w", err))
	}
	if _, err := ParseRangeType(string(s.RangeType)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if s.RangeType == RangeFixed && s.RangeValue < 0 {
		errs = multierr.Append(errs, fmt.Errorf("range_value must be >= 0, got %d", s.RangeValue))
	}
	if s.RangeStat != "" {
		if s.RangeType != RangeStatDependent {
			errs = multierr.Append(errs, errors.New("range_value names a stat but range_type is not stat_dependent"))
		} else if _, err := ParseStat(string(s.RangeStat)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("range_value: %w", err))
		}
	}
	if _, err := ParseShape(string(s.TargetShape)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if s.BaseMultiplier <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("base_multiplier must be > 0, got %v", s.BaseMultiplier))
	}
	return errs
}

// Skill returns the definition for id.
func (c *Catalog) Skill(id int) (Skill, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// All returns every skill ordered by id.
func (c *Catalog) All() []Skill {
	out := make([]Skill, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Len() int { return len(c.order) }

// rawSkill is the on-disk record. Fields that must be present are pointers
// so a missing key is distinguishable from a zero value.
type rawSkill struct {
	ID             *int     `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Cost           int      `yaml:"cost"`
	Type           string   `yaml:"type"`
	StatDependency string   `yaml:"stat_dependency"`
	RangeType      string   `yaml:"range_type"`
	RangeValue     any      `yaml:"range_value"`
	TargetShape    string   `yaml:"target_shape"`
	BaseMultiplier *float64 `yaml:"base_multiplier"`
}

func (r rawSkill) toSkill() (Skill, error) {
	if r.ID == nil {
		return Skill{}, errors.New("missing id")
	}
	s := Skill{
		ID:             *r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Cost:           r.Cost,
		Type:           SkillType(strings.ToLower(r.Type)),
		StatDependency: Stat(strings.ToUpper(r.StatDependency)),
		RangeType:      RangeType(strings.ToLower(r.RangeType)),
		TargetShape:    Shape(strings.ToLower(r.TargetShape)),
	}
	if r.BaseMultiplier == nil {
		return Skill{}, fmt.Errorf("id %d: missing base_multiplier", s.ID)
	}
	s.BaseMultiplier = *r.BaseMultiplier

	switch v := r.RangeValue.(type) {
	case nil:
		if s.RangeType == RangeFixed {
			return Skill{}, fmt.Errorf("id %d: fixed range requires range_value", s.ID)
		}
	case int:
		s.RangeValue = v
	case float64:
		if v != float64(int(v)) {
			return Skill{}, fmt.Errorf("id %d: range_value must be an integer, got %v", s.ID, v)
		}
		s.RangeValue = int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			s.RangeValue = n
			break
		}
		st, err := ParseStat(v)
		if err != nil {
			return Skill{}, fmt.Errorf("id %d: range_value: %w", s.ID, err)
		}
		s.RangeStat = st
	default:
		return Skill{}, fmt.Errorf("id %d: unsupported range_value %v", s.ID, v)
	}
	return s, nil
}

// Parse decodes a catalog document. Both a bare list of skills (the
// skills.json layout) and a mapping with a top-level "skills" key are
// accepted; JSON input works because it is valid YAML.
func Parse(data []byte) (*Catalog, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, ErrEmptyCatalog
	}

	var raws []rawSkill
	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&raws); err != nil {
			return nil, fmt.Errorf("decoding skills: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Skills []rawSkill `yaml:"skills"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decoding skills: %w", err)
		}
		raws = wrapped.Skills
	default:
		return nil, fmt.Errorf("catalog root must be a list or a mapping")
	}

	var errs error
	skills := make([]Skill, 0, len(raws))
	for i, r := range raws {
		s, err := r.toSkill()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("skill[%d]: %w", i, err))
			continue
		}
		skills = append(skills, s)
	}
	if errs != nil {
		return nil, errs
	}
	return New(skills)
}

// Load reads and validates the catalog file at path.
//
// Precondition: path names a readable YAML or JSON file.
// Postcondition: Returns a complete Catalog or a non-nil error; never a partial catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}
