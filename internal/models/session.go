package models

import (
	"context"
	"sync"
)

// SessionState is the conversation position of a single chat.
type SessionState string

const (
	StateAwaitingKeyword       SessionState = "awaiting_keyword"
	StateAwaitingList          SessionState = "awaiting_list"
	StateAwaitingURL           SessionState = "awaiting_url"
	StateAwaitingManualContent SessionState = "awaiting_manual_content"
	StateAwaitingSeedSelection SessionState = "awaiting_seed_selection"
	StateProcessing            SessionState = "processing"
)

// maxSiteContext bounds the cached landing-page text carried in a session.
const maxSiteContext = 4000

// Session is the per-chat conversation state. The mutex serializes update
// handling for one chat; sessions are never shared across chats.
//
// There is no terminal state: every pipeline run, successful or not, puts the
// session back into StateAwaitingKeyword so the user can go again.
type Session struct {
	mu sync.Mutex

	ChatID int64
	State  SessionState

	// Seed-selection sub-flow.
	Seeds         []string
	Selected      map[string]bool
	SiteContext   string
	SeedMessageID int64

	// Cancel function of the in-flight pipeline, nil when idle.
	cancel context.CancelFunc
}

// NewSession returns a fresh session in the entry state.
func NewSession(chatID int64) *Session {
	return &Session{
		ChatID:   chatID,
		State:    StateAwaitingKeyword,
		Selected: make(map[string]bool),
	}
}

// Lock takes the per-session mutex.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session mutex.
func (s *Session) Unlock() { s.mu.Unlock() }

// Reset returns the session to the entry state and cancels any in-flight
// pipeline. The cancelled run observes its context at the next suspension
// point and goes quiet.
func (s *Session) Reset() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.State = StateAwaitingKeyword
	s.Seeds = nil
	s.Selected = make(map[string]bool)
	s.SiteContext = ""
	s.SeedMessageID = 0
}

// BeginPipeline marks the session as processing and records the run's cancel
// function. The returned context dies on reset or session eviction.
func (s *Session) BeginPipeline(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.State = StateProcessing
	return ctx
}

// EndPipeline clears the in-flight run and returns to the entry state.
func (s *Session) EndPipeline() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.State = StateAwaitingKeyword
}

// SetSiteContext stores landing-page text, truncated to the session bound.
func (s *Session) SetSiteContext(text string) {
	if len(text) > maxSiteContext {
		text = text[:maxSiteContext]
	}
	s.SiteContext = text
}

// SetSeeds replaces the seed suggestions and clears the selection.
func (s *Session) SetSeeds(seeds []string) {
	s.Seeds = seeds
	s.Selected = make(map[string]bool)
}

// ToggleSeed flips membership of name in the selection set. Unknown names are
// ignored; stale callback queries from a previous keyboard must not error.
func (s *Session) ToggleSeed(name string) {
	known := false
	for _, seed := range s.Seeds {
		if seed == name {
			known = true
			break
		}
	}
	if !known {
		return
	}
	if s.Selected[name] {
		delete(s.Selected, name)
	} else {
		s.Selected[name] = true
	}
}

// SelectedSeeds returns the selected seeds in suggestion order.
func (s *Session) SelectedSeeds() []string {
	var out []string
	for _, seed := range s.Seeds {
		if s.Selected[seed] {
			out = append(out, seed)
		}
	}
	return out
}
