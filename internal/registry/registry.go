package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"impostor-irl/internal/game"

	"github.com/rs/zerolog/log"
)

const (
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength       = 5
	maxCodeAttempts  = 32
	defaultIdleTTL   = 6 * time.Hour
	defaultEmptyWait = 30 * time.Second
)

var ErrCodeSpaceExhausted = errors.New("code_space_exhausted")

type Options struct {
	// Session options shared by every session. Rand is ignored; each session
	// gets its own source.
	Session    game.Options
	IdleTTL    time.Duration
	EmptyGrace time.Duration
	Now        func() time.Time
}

// Registry maps lobby codes to sessions. Its lock covers only the map; each
// session serialises its own state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session

	opts Options
}

func New(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Session.Now == nil {
		opts.Session.Now = opts.Now
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.EmptyGrace <= 0 {
		opts.EmptyGrace = defaultEmptyWait
	}
	return &Registry{
		sessions: map[string]*game.Session{},
		opts:     opts,
	}
}

func (r *Registry) Create() (string, *game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return "", nil, err
		}
		if _, exists := r.sessions[code]; exists {
			continue
		}
		sessOpts := r.opts.Session
		sessOpts.Rand = mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64()))
		s := game.NewSession(code, sessOpts)
		r.sessions[code] = s
		log.Info().Str("code", code).Int("sessions", len(r.sessions)).Msg("session created")
		return code, s, nil
	}
	return "", nil, ErrCodeSpaceExhausted
}

func (r *Registry) Lookup(code string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[normalizeCode(code)]
	return s, ok
}

// Join adds a player to the session under the registry read lock, so an
// eviction of an empty session cannot slip between the lookup and the join.
func (r *Registry) Join(code, name string) (*game.Session, game.JoinResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[normalizeCode(code)]
	if !ok {
		return nil, game.JoinResult{}, game.ErrSessionNotFound
	}
	res, err := s.AddPlayer(name)
	if err != nil {
		return nil, game.JoinResult{}, err
	}
	return s, res, nil
}

func (r *Registry) Evict(code string) {
	code = normalizeCode(code)
	r.mu.Lock()
	_, ok := r.sessions[code]
	delete(r.sessions, code)
	r.mu.Unlock()
	if ok {
		log.Info().Str("code", code).Msg("session evicted")
	}
}

// EvictIfEmpty drops the session once no active players remain. It reports
// whether the session was removed.
func (r *Registry) EvictIfEmpty(code string) bool {
	code = normalizeCode(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	if !ok || s.ActivePlayers() > 0 {
		return false
	}
	delete(r.sessions, code)
	log.Info().Str("code", code).Msg("empty session evicted")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions that have been empty past the grace period or idle
// past the TTL. It returns the number evicted.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for code, s := range r.sessions {
		idle := now.Sub(s.LastActivity())
		empty := s.ActivePlayers() == 0
		if (empty && idle >= r.opts.EmptyGrace) || idle >= r.opts.IdleTTL {
			delete(r.sessions, code)
			evicted++
			log.Info().Str("code", code).Dur("idle", idle).Bool("empty", empty).Msg("session expired")
		}
	}
	return evicted
}

func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(r.opts.Now()); n > 0 {
					log.Debug().Int("evicted", n).Int("remaining", r.Len()).Msg("janitor sweep")
				}
			}
		}
	}()
}

func newCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
