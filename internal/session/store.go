package session

import (
	"context"
	"time"

	"github.com/DMarby/instafilter/internal/image"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Store keeps the open sessions, closing the ones that have been idle for longer than the ttl
type Store struct {
	Log       *logger.Logger
	Processor image.Processor
	Cache     *image.Cache
	Storage   storage.Provider

	sessions *ttlcache.Cache[string, *Session]
}

// NewStore returns a new, empty Store
func NewStore(log *logger.Logger, processor image.Processor, cache *image.Cache, storageProvider storage.Provider, ttl time.Duration) *Store {
	sessions := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)

	sessions.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		item.Value().close()

		if reason == ttlcache.EvictionReasonExpired {
			log.Debugf("closed idle session %s", item.Key())
		}
	})

	return &Store{
		Log:       log,
		Processor: processor,
		Cache:     cache,
		Storage:   storageProvider,
		sessions:  sessions,
	}
}

// Create opens a new session with the default filter selected
func (s *Store) Create() *Session {
	session := newSession(uuid.NewString(), s.Processor, s.Cache, s.Storage)
	s.sessions.Set(session.ID, session, ttlcache.DefaultTTL)

	return session
}

// Get returns an open session, extending its lifetime
func (s *Store) Get(id string) (*Session, error) {
	item := s.sessions.Get(id)
	if item == nil {
		return nil, ErrNotFound
	}

	return item.Value(), nil
}

// Delete closes a session
func (s *Store) Delete(id string) error {
	if s.sessions.Get(id, ttlcache.WithDisableTouchOnHit[string, *Session]()) == nil {
		return ErrNotFound
	}

	s.sessions.Delete(id)
	return nil
}

// Len returns the number of sessions held, including expired ones that have not been swept yet
func (s *Store) Len() int {
	return s.sessions.Len()
}

// Sweep closes the sessions that have been idle for longer than the ttl
func (s *Store) Sweep() {
	s.sessions.DeleteExpired()
}

// Run sweeps idle sessions as they expire until ctx is cancelled
func (s *Store) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.sessions.Stop()
	}()

	s.sessions.Start()
}
