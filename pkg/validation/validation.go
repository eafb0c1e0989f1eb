// Package validation checks blueprints against size limits before analysis
// and sanitizes the free-text fields that end up in reports.
package validation

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
)

// ErrLimitExceeded is returned when a blueprint is larger than allowed
var ErrLimitExceeded = errors.New("limit exceeded")

// ErrInvalidField is returned for malformed text fields
var ErrInvalidField = errors.New("invalid field")

// Default limits. The extent matches the diagnostic canvas, which spans 120
// tiles centred on the origin.
const (
	DefaultMaxParts  = 20000
	DefaultMaxExtent = 60
	MaxNameLen       = 64
	MaxTagLen        = 32
	MaxTags          = 16
)

// Limits bounds the size of an accepted blueprint
type Limits struct {
	MaxParts  int
	MaxExtent int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{MaxParts: DefaultMaxParts, MaxExtent: DefaultMaxExtent}
}

// BlueprintValidator applies Limits to blueprints
type BlueprintValidator struct {
	limits Limits
}

// NewBlueprintValidator creates a validator. Zero fields fall back to the
// defaults.
func NewBlueprintValidator(limits Limits) *BlueprintValidator {
	d := DefaultLimits()
	if limits.MaxParts <= 0 {
		limits.MaxParts = d.MaxParts
	}
	if limits.MaxExtent <= 0 {
		limits.MaxExtent = d.MaxExtent
	}
	return &BlueprintValidator{limits: limits}
}

// Limits returns the effective limits
func (v *BlueprintValidator) Limits() Limits {
	return v.limits
}

// Validate checks the part count and that every part location lies within
// the extent. Footprints are not checked here since their sizes live in the
// catalog.
func (v *BlueprintValidator) Validate(bp *blueprint.Blueprint) error {
	if bp == nil {
		return fmt.Errorf("%w: blueprint is nil", ErrInvalidField)
	}
	if n := len(bp.Parts); n > v.limits.MaxParts {
		return fmt.Errorf("%w: %d parts (max %d)", ErrLimitExceeded, n, v.limits.MaxParts)
	}
	ext := v.limits.MaxExtent
	for i, p := range bp.Parts {
		x, y := p.Location[0], p.Location[1]
		if x < -ext || x >= ext || y < -ext || y >= ext {
			return fmt.Errorf("%w: part %d (%s) at (%d, %d) outside +/-%d tiles",
				ErrLimitExceeded, i, p.ID, x, y, ext)
		}
	}
	if bp.FlightDirection < 0 || bp.FlightDirection > 7 {
		return fmt.Errorf("%w: flight direction %d not in 0..7", ErrInvalidField, bp.FlightDirection)
	}
	if len(bp.Tags) > MaxTags {
		return fmt.Errorf("%w: %d tags (max %d)", ErrLimitExceeded, len(bp.Tags), MaxTags)
	}
	return nil
}

// SanitizeText trims a free-text field, drops control characters and escapes
// HTML. Empty input is allowed.
func SanitizeText(field, value string, maxLen int) (string, error) {
	if !utf8.ValidString(value) {
		return "", fmt.Errorf("%w: %s contains invalid UTF-8", ErrInvalidField, field)
	}
	trimmed := strings.TrimSpace(value)
	if n := utf8.RuneCountInString(trimmed); n > maxLen {
		return "", fmt.Errorf("%w: %s too long: %d characters (max %d)", ErrInvalidField, field, n, maxLen)
	}
	filtered := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, trimmed)
	return html.EscapeString(filtered), nil
}

// SanitizeMetadata cleans the name, author and tags of a blueprint in place
func SanitizeMetadata(bp *blueprint.Blueprint) error {
	var err error
	if bp.Name, err = SanitizeText("name", bp.Name, MaxNameLen); err != nil {
		return err
	}
	if bp.Author, err = SanitizeText("author", bp.Author, MaxNameLen); err != nil {
		return err
	}
	tags := bp.Tags[:0]
	for _, tag := range bp.Tags {
		clean, err := SanitizeText("tag", tag, MaxTagLen)
		if err != nil {
			return err
		}
		if clean != "" {
			tags = append(tags, clean)
		}
	}
	bp.Tags = tags
	return nil
}
