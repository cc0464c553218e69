package assistant

import (
	"sync"
)

// Sessions hands out one Session per owner so that each owner's questions
// share a thread. Sessions are created on first use and live until Reset.
type Sessions struct {
	client Client
	cfg    Config

	mu sync.Mutex
	m  map[string]*Session
}

// NewSessions creates an empty pool.
func NewSessions(client Client, cfg Config) *Sessions {
	return &Sessions{client: client, cfg: cfg, m: make(map[string]*Session)}
}

// For returns the session of owner, creating it if needed.
func (p *Sessions) For(owner string) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.m[owner]
	if !ok {
		s = NewSession(p.client, p.cfg)
		p.m[owner] = s
	}
	return s
}

// Len returns the number of live sessions.
func (p *Sessions) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// Reconfigure replaces the settings used for new sessions and drops the
// existing ones.
func (p *Sessions) Reconfigure(cfg Config) {
	p.mu.Lock()
	p.cfg = cfg
	p.m = make(map[string]*Session)
	p.mu.Unlock()
}

// Reset drops every session. Later questions start new threads.
func (p *Sessions) Reset() {
	p.mu.Lock()
	p.m = make(map[string]*Session)
	p.mu.Unlock()
}
