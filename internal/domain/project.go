package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidProject marks a project that cannot be stored.
var ErrInvalidProject = errors.New("invalid project")

var shortIDPattern = regexp.MustCompile(`^[A-Z]{3,6}[0-9]{2,4}$`)

// Project anchors a schedule: tasks without predecessors start on StartDate.
type Project struct {
	ID         string
	ShortID    string
	Name       string
	StartDate  time.Time
	TargetDate *time.Time
	Status     ProjectStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalizeShortID trims and uppercases a user-typed short id.
func NormalizeShortID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Validate checks the short id format (3-6 uppercase letters then 2-4
// digits, e.g. WEB01), the name, and that the target does not precede the
// start.
func (p *Project) Validate() error {
	switch {
	case p.ShortID == "":
		return fmt.Errorf("%w: short ID is required", ErrInvalidProject)
	case !shortIDPattern.MatchString(p.ShortID):
		return fmt.Errorf("%w: short ID %q must be 3-6 uppercase letters followed by 2-4 digits (e.g. WEB01)",
			ErrInvalidProject, p.ShortID)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProject)
	case p.StartDate.IsZero():
		return fmt.Errorf("%w: start date is required", ErrInvalidProject)
	case p.TargetDate != nil && p.TargetDate.Before(p.StartDate):
		return fmt.Errorf("%w: target date %s precedes start date %s",
			ErrInvalidProject, FormatDate(p.TargetDate), FormatDate(&p.StartDate))
	}
	return nil
}

// DisplayID prefers ShortID and falls back to the first 8 characters of ID.
func (p *Project) DisplayID() string {
	if p.ShortID != "" {
		return p.ShortID
	}
	return p.ID[:min(8, len(p.ID))]
}
