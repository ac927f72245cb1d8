package roster

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
)

var ErrInvalidSheet = errors.New("invalid character sheet")

// MaxSkillSlots is how many skills a character may bring into a session.
const MaxSkillSlots = 2

const (
	MaxLevel = 99
	// BasePoints is the stat budget above 1 at level 1; each level above
	// that adds PointsPerLevel.
	BasePoints     = 5
	PointsPerLevel = 3
)

// StatBudget is how many points above 1 a character of level may spend.
func StatBudget(level int) int { return BasePoints + (level-1)*PointsPerLevel }

// Sheet is a character build as submitted by a client. Derived values are
// never read from the client; MaxHP and MaxMove recompute them.
type Sheet struct {
	ID     string
	Name   string
	Level  int
	Stats  engine.Stats
	Skills []int
}

func (s Sheet) MaxHP() int   { return s.Stats.MaxHP() }
func (s Sheet) MaxMove() int { return s.Stats.MaxMove() }

// ValidateSheet reports every rule s breaks, wrapped in ErrInvalidSheet.
//
// Precondition: skills is non-nil.
// Postcondition: Returns nil iff s may be used to spawn a unit.
func ValidateSheet(s Sheet, skills engine.SkillLookup) error {
	var errs error
	if s.Name == "" {
		errs = multierr.Append(errs, errors.New("name is required"))
	}
	levelOK := s.Level >= 1 && s.Level <= MaxLevel
	if !levelOK {
		errs = multierr.Append(errs, fmt.Errorf("level must be in [1, %d], got %d", MaxLevel, s.Level))
	}
	spent, statsOK := 0, true
	for _, st := range []struct {
		name  string
		value int
	}{
		{"STR", s.Stats.STR}, {"DEX", s.Stats.DEX}, {"VIT", s.Stats.VIT},
		{"INT", s.Stats.INT}, {"AGI", s.Stats.AGI}, {"LUK", s.Stats.LUK},
	} {
		if st.value < 1 {
			errs = multierr.Append(errs, fmt.Errorf("%s must be >= 1, got %d", st.name, st.value))
			statsOK = false
			continue
		}
		// capped so the sum cannot overflow
		spent += min(st.value-1, StatBudget(MaxLevel)+1)
	}
	if levelOK && statsOK && spent > StatBudget(s.Level) {
		errs = multierr.Append(errs, fmt.Errorf("stats spend %d points, level %d allows %d", spent, s.Level, StatBudget(s.Level)))
	}

	switch {
	case len(s.Skills) == 0:
		errs = multierr.Append(errs, errors.New("first skill slot is empty"))
	case len(s.Skills) > MaxSkillSlots:
		errs = multierr.Append(errs, fmt.Errorf("at most %d skills, got %d", MaxSkillSlots, len(s.Skills)))
	case len(s.Skills) == 2 && s.Skills[0] == s.Skills[1]:
		errs = multierr.Append(errs, fmt.Errorf("skill %d chosen twice", s.Skills[0]))
	}
	for _, id := range s.Skills {
		if _, ok := skills.Skill(id); !ok {
			errs = multierr.Append(errs, fmt.Errorf("skill %d is not in the catalog", id))
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSheet, errs)
	}
	return nil
}
