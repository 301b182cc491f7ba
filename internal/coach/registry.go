package coach

import (
	"errors"
	"sync"
	"time"

	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/telemetry/metrics"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionInfo is what clients learn about a session when it is created.
type SessionInfo struct {
	ID        string               `json:"id"`
	Exercise  exercise.Kind        `json:"exercise"`
	Config    engine.SessionConfig `json:"config"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Session is one live engine. Frames of a session are processed one at a
// time.
type Session struct {
	SessionInfo

	mu        sync.Mutex
	engine    *engine.Engine
	reps      int
	completed bool
}

// Registry keeps live sessions in memory. A session nobody sent a frame to
// for the idle timeout is evicted.
type Registry struct {
	cache          *gocache.Cache
	metricsManager *metrics.Manager
}

func NewRegistry(idleTimeout time.Duration, metricsManager *metrics.Manager) *Registry {
	cleanupInterval := idleTimeout / 2
	if cleanupInterval < 100*time.Millisecond {
		cleanupInterval = 100 * time.Millisecond
	}

	c := gocache.New(idleTimeout, cleanupInterval)
	c.OnEvicted(func(id string, _ interface{}) {
		log.Debugf("session [%s] removed", id)
		if metricsManager != nil {
			metricsManager.GaugeActiveSessions.Dec()
		}
	})

	return &Registry{
		cache:          c,
		metricsManager: metricsManager,
	}
}

func (r *Registry) Add(s *Session) {
	r.cache.SetDefault(s.ID, s)
	if r.metricsManager != nil {
		r.metricsManager.GaugeActiveSessions.Inc()
	}
}

// Get returns the session and restarts its idle timer.
func (r *Registry) Get(id string) (*Session, error) {
	v, found := r.cache.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := r.cache.Replace(id, s, gocache.DefaultExpiration); err != nil {
		// expired in between
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Remove(id string) error {
	if _, found := r.cache.Get(id); !found {
		return ErrSessionNotFound
	}
	r.cache.Delete(id)
	return nil
}

func (r *Registry) Count() int {
	return r.cache.ItemCount()
}
