package domain

import "sync"

// Step is the current position of a conversation. Transitions are
// strictly linear through the declared order; idle is both the initial
// and the terminal step.
type Step string

const (
	StepIdle                Step = "idle"
	StepAwaitingName        Step = "awaiting_name"
	StepAwaitingType        Step = "awaiting_type"
	StepAwaitingCostPrice   Step = "awaiting_cost_price"
	StepAwaitingSalePrice   Step = "awaiting_sale_price"
	StepAwaitingDescription Step = "awaiting_description"
)

// SessionSnapshot is the read-only view served by the status surface.
type SessionSnapshot struct {
	ID             string `json:"id,omitempty"`
	Step           Step   `json:"step"`
	LastTranscript string `json:"last_transcript,omitempty"`
	Status         string `json:"status,omitempty"`
	Listening      bool   `json:"listening"`
	Submitting     bool   `json:"submitting"`
}

// Session owns all mutable conversation state: the current step, the
// draft being collected, and the display-only transient values. The
// assistant loop is the only writer; the mutex exists because the
// status surface reads snapshots from another goroutine.
type Session struct {
	mu             sync.Mutex
	id             string
	step           Step
	draft          ProductDraft
	lastTranscript string
	status         string
	listening      bool
	submitting     bool
}

func NewSession() *Session {
	return &Session{step: StepIdle, draft: NewProductDraft()}
}

// Begin resets the draft to defaults and enters the first question step.
func (s *Session) Begin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.step = StepAwaitingName
	s.draft = NewProductDraft()
}

// Reset discards any in-flight draft and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.step = StepIdle
	s.draft = NewProductDraft()
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) SetStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

// Draft returns a copy; updates go back through SetDraft.
func (s *Session) Draft() ProductDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) SetDraft(d ProductDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

func (s *Session) SetLastTranscript(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTranscript = text
}

func (s *Session) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) SetListening(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listening = v
}

func (s *Session) SetSubmitting(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = v
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:             s.id,
		Step:           s.step,
		LastTranscript: s.lastTranscript,
		Status:         s.status,
		Listening:      s.listening,
		Submitting:     s.submitting,
	}
}
