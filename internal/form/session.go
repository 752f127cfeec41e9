// Package form implements the multi-step form session: field values, the
// current step pointer, per-step validation, and submission payload building.
// A Session lives for exactly one form fill; callers construct it when a
// template loads and drop it when the user navigates away or submission
// succeeds. All mutation happens on discrete caller events, so the type is
// intentionally not safe for concurrent use.
package form

import (
	"errors"
	"strings"

	"github.com/planpress/planpress/internal/model"
	"github.com/planpress/planpress/internal/schema"
)

var (
	// ErrSubmitInFlight rejects a second submit while one is outstanding,
	// preventing duplicate documents.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrStepIncomplete is returned when Submit is invoked on the final step
	// with required fields still empty.
	ErrStepIncomplete = errors.New("required fields missing on current step")
)

// Session tracks one form-fill session over a loaded template.
type Session struct {
	template model.Template
	known    map[string]struct{}
	values   map[string]string
	current  int
	minStep  int
	maxStep  int
	inFlight bool
	lastErr  string
}

// NewSession seeds values from the template defaults, falling back to the
// empty string for every declared field, and positions the step pointer on
// the lowest ordinal present.
func NewSession(tpl model.Template) *Session {
	s := &Session{
		template: tpl,
		known:    schema.KnownFieldIDs(tpl),
		values:   make(map[string]string),
		minStep:  tpl.MinStep(),
		maxStep:  tpl.MaxStep(),
	}
	s.current = s.minStep
	for id := range s.known {
		s.values[id] = ""
	}
	for id, v := range tpl.Defaults {
		s.values[id] = v
	}
	return s
}

// Template returns the template driving this session.
func (s *Session) Template() model.Template { return s.template }

// CurrentStep returns the 1-based step pointer.
func (s *Session) CurrentStep() int { return s.current }

// MaxStep returns the highest ordinal in the template.
func (s *Session) MaxStep() int { return s.maxStep }

// AtFinalStep reports whether submit would produce a payload rather than
// advance.
func (s *Session) AtFinalStep() bool { return s.current == s.maxStep }

// Set stores a field value. Unknown ids are stored too, but they never
// satisfy a declared required field.
func (s *Session) Set(fieldID, value string) {
	s.values[fieldID] = value
}

// Value returns the current value for a field id.
func (s *Session) Value(fieldID string) string { return s.values[fieldID] }

// IsStepValid reports whether every required field on the given step carries
// a non-empty trimmed value.
func (s *Session) IsStepValid(step int) bool {
	for _, section := range s.template.SectionsForStep(step) {
		for _, field := range section.Fields {
			if !field.Required {
				continue
			}
			if strings.TrimSpace(s.values[field.ID]) == "" {
				return false
			}
		}
	}
	return true
}

// Advance moves to the next step when the current one validates. A failed
// guard leaves the pointer untouched and reports false.
func (s *Session) Advance() bool {
	if !s.IsStepValid(s.current) {
		return false
	}
	if s.current < s.maxStep {
		s.current++
		return true
	}
	return false
}

// Retreat moves back one step, clamped at the first. Never validated.
func (s *Session) Retreat() {
	if s.current > s.minStep {
		s.current--
	}
}

// Submit is the wizard's primary action. Below the final step it is
// reinterpreted as Advance and returns no payload. On the final step it
// validates, flips the in-flight flag, and returns the submission payload
// filtered to the template's declared field ids. Values are left untouched
// so a failed submission can be retried with the identical payload.
func (s *Session) Submit() (*model.SubmissionPayload, error) {
	if s.inFlight {
		return nil, ErrSubmitInFlight
	}
	if s.current < s.maxStep {
		s.Advance()
		return nil, nil
	}
	if !s.IsStepValid(s.current) {
		return nil, ErrStepIncomplete
	}
	s.inFlight = true
	s.lastErr = ""
	return &model.SubmissionPayload{
		TemplateID: s.template.TemplateID,
		FormData:   s.payloadValues(),
	}, nil
}

// FinishSubmit clears the in-flight flag and records the outcome. On error
// the session remains usable for an idempotent resubmission.
func (s *Session) FinishSubmit(err error) {
	s.inFlight = false
	if err != nil {
		s.lastErr = err.Error()
	}
}

// Submitting reports whether a submission round-trip is outstanding.
func (s *Session) Submitting() bool { return s.inFlight }

// Err returns the last submission error message, or "".
func (s *Session) Err() string { return s.lastErr }

func (s *Session) payloadValues() map[string]string {
	out := make(map[string]string, len(s.known))
	for id := range s.known {
		out[id] = s.values[id]
	}
	return out
}
