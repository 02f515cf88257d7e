// Package store persists scan profiles and the matches they find.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/worldgen"
)

// ErrProfileNotFound is returned when no profile has the requested id.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is a persisted scan request. Current is the watermark: every seed
// below it has been scanned.
type Profile struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Game       worldgen.GameDesc `json:"game"`
	Rule       rules.Definition  `json:"rule"`
	RangeStart int32             `json:"rangeStart"`
	RangeEnd   int32             `json:"rangeEnd"`
	Current    int64             `json:"current"`
	Found      int64             `json:"found"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Complete reports whether the whole range has been scanned.
func (p Profile) Complete() bool {
	return p.Current > int64(p.RangeEnd)
}

// Validate checks the fields a caller provides when creating a profile.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.RangeStart > p.RangeEnd {
		return fmt.Errorf("invalid range [%d, %d]", p.RangeStart, p.RangeEnd)
	}
	if err := p.Game.Validate(); err != nil {
		return err
	}
	return rules.Validate(p.Rule)
}

// Match is one seed whose galaxy satisfied a profile's rule.
type Match struct {
	ProfileID string `json:"profileId"`
	Seed      int32  `json:"seed"`
	Indexes   []int  `json:"indexes"`
}

// Store is the persistence contract for profiles and matches.
type Store interface {
	// CreateProfile assigns an id when p has none, sets the watermark to
	// the range start and stamps the timestamps.
	CreateProfile(ctx context.Context, p Profile) (Profile, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	// UpdateProgress moves the watermark forward. It never moves it back.
	UpdateProgress(ctx context.Context, id string, current int64) error
	// AddMatch records a match. Recording the same seed twice is a no-op.
	AddMatch(ctx context.Context, id string, seed int32, indexes []int) error
	ListMatches(ctx context.Context, id string) ([]Match, error)
	DeleteProfile(ctx context.Context, id string) error
	Close() error
}
