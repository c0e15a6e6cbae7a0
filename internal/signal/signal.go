// Package signal defines the typed signals produced by detectors and the
// per-(type, domain) effectiveness statistics that feed back into scoring.
package signal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NoEntity is the grouping key used for signals without related entities.
const NoEntity = "_none"

// Signal is a short-lived, typed observation about the user's situation.
// Only IsDismissed, IsActedOn and ExpiresAt change after creation.
type Signal struct {
	ID               string     `json:"id" validate:"required"`
	Type             Type       `json:"type" validate:"signaltype"`
	Severity         Severity   `json:"severity" validate:"severity"`
	Domain           Domain     `json:"domain" validate:"domain"`
	Source           string     `json:"source" validate:"required"`
	Title            string     `json:"title" validate:"required"`
	Context          string     `json:"context"`
	SuggestedAction  string     `json:"suggested_action,omitempty"`
	AutoActionable   bool       `json:"auto_actionable"`
	IsDismissed      bool       `json:"is_dismissed"`
	IsActedOn        bool       `json:"is_acted_on"`
	RelatedEntityIDs []string   `json:"related_entity_ids"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// Draft carries the detector-supplied fields of a new signal.
type Draft struct {
	Type             Type
	Severity         Severity
	Domain           Domain
	Source           string
	Title            string
	Context          string
	SuggestedAction  string
	AutoActionable   bool
	RelatedEntityIDs []string
	ExpiresAt        *time.Time
}

// New creates a signal with a fresh id stamped at now.
func New(d Draft, now time.Time) Signal {
	related := d.RelatedEntityIDs
	if related == nil {
		related = []string{}
	}
	return Signal{
		ID:               uuid.NewString(),
		Type:             d.Type,
		Severity:         d.Severity,
		Domain:           d.Domain,
		Source:           d.Source,
		Title:            d.Title,
		Context:          d.Context,
		SuggestedAction:  d.SuggestedAction,
		AutoActionable:   d.AutoActionable,
		RelatedEntityIDs: related,
		CreatedAt:        now,
		ExpiresAt:        d.ExpiresAt,
	}
}

// PrimaryEntityID returns the first related entity id, or NoEntity.
func (s Signal) PrimaryEntityID() string {
	if len(s.RelatedEntityIDs) == 0 || s.RelatedEntityIDs[0] == "" {
		return NoEntity
	}
	return s.RelatedEntityIDs[0]
}

// IsActive reports whether the signal still awaits a response.
func (s Signal) IsActive() bool {
	return !s.IsDismissed && !s.IsActedOn
}

// IsExpired reports whether the signal has an expiry that has passed.
func (s Signal) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// WeightKey identifies the SignalWeight row this signal contributes to.
func (s Signal) WeightKey() string {
	return WeightKey(s.Type, s.Domain)
}

// Validate checks required fields and enum membership.
func (s Signal) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid signal %q: %w", s.ID, err)
	}
	return nil
}

// ExpiresIn returns a pointer to now+d, for Draft.ExpiresAt.
func ExpiresIn(now time.Time, d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return Severity(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("signaltype", func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("domain", func(fl validator.FieldLevel) bool {
		return Domain(fl.Field().String()).Valid()
	})
	return v
}
