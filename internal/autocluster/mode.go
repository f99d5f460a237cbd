package autocluster

import (
	"fmt"

	"github.com/Faultbox/shatter/internal/config"
)

// Mode selects how candidates are grouped before sites are placed.
type Mode int

const (
	// ModeProximity groups candidates connected through the proximity relation.
	ModeProximity Mode = iota
	// ModeBoundingBox groups candidates whose expanded world boxes overlap and
	// assigns members by corner distance.
	ModeBoundingBox
	// ModeDistance puts every candidate in one group and assigns by centroid
	// distance alone.
	ModeDistance
)

func (m Mode) String() string {
	switch m {
	case ModeProximity:
		return config.ModeProximity
	case ModeBoundingBox:
		return config.ModeBoundingBox
	case ModeDistance:
		return config.ModeDistance
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a config mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case config.ModeProximity:
		return ModeProximity, nil
	case config.ModeBoundingBox, "":
		return ModeBoundingBox, nil
	case config.ModeDistance:
		return ModeDistance, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
