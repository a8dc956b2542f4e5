package layer

import (
	"runtime"
	"sync"

	"github.com/neurlang/msahmm/logging"
)

// Session tracks every parameter allocated since the last reset so that
// repeated training runs in one process release what the previous run built.
//
// Tracking is not limited to training: NewParameter registers with the
// default session wherever it is called, and the session holds a reference
// until the next Reset. Long-lived programs that build parameters outside
// training should call Reset once they are done with them.
type Session struct {
	mu         sync.Mutex
	params     []*Parameter
	scalars    int
	generation uint64
}

var (
	defaultMu      sync.Mutex
	defaultSession *Session
)

// Default returns the process-wide session, creating it on first use
func Default() *Session {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSession == nil {
		defaultSession = new(Session)
	}
	return defaultSession
}

func (s *Session) track(p *Parameter) {
	s.mu.Lock()
	s.params = append(s.params, p)
	s.scalars += p.Len()
	s.mu.Unlock()
}

// Stats reports the tracked parameter count, their total scalar count and
// the number of resets so far
func (s *Session) Stats() (params, scalars int, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.params), s.scalars, s.generation
}

// Reset forgets every tracked parameter and collects garbage. It is a no-op
// apart from the generation counter when nothing was tracked.
func (s *Session) Reset() {
	s.mu.Lock()
	released := len(s.params)
	for i := range s.params {
		s.params[i] = nil
	}
	s.params = nil
	s.scalars = 0
	s.generation++
	s.mu.Unlock()

	if released > 0 {
		runtime.GC()
	}
	logging.Internal().Debug("training session reset", "released", released)
}
