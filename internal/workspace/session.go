package workspace

import (
	"hash/fnv"
	"sync"
	"time"
)

// DefaultMaxSessions caps how many session records the store retains before
// evicting the least recently accessed ones.
const DefaultMaxSessions = 1024

const sessionShardCount = 16

// SessionState is the per-connection workspace state, keyed by an opaque
// session identifier supplied by the transport layer. Values returned by the
// store are snapshots; all mutation goes through SessionStore methods.
type SessionState struct {
	Key               string
	HeaderWorkspace   string
	ExplicitWorkspace string
	CreatedAt         time.Time
	LastAccessedAt    time.Time
}

// SessionStore owns all session records. It is sharded so operations on
// distinct session keys do not contend; operations on the same key serialize
// on the shard mutex, which gives each read-modify-write the atomicity the
// resolver depends on.
//
// The store is bounded: each shard evicts its least recently accessed entry
// once the per-shard budget is exceeded. A session evicted mid-connection
// simply loses its sticky workspace and re-resolves on the next request.
type SessionStore struct {
	shards      [sessionShardCount]sessionShard
	maxPerShard int
	now         func() time.Time
}

type sessionShard struct {
	mu       sync.Mutex
	sessions map[string]*SessionState
}

// NewSessionStore returns a store retaining at most maxSessions records;
// maxSessions <= 0 selects DefaultMaxSessions.
func NewSessionStore(maxSessions int) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	perShard := maxSessions / sessionShardCount
	if perShard < 1 {
		perShard = 1
	}
	s := &SessionStore{maxPerShard: perShard, now: time.Now}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*SessionState)
	}
	return s
}

func (s *SessionStore) shard(key string) *sessionShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.shards[h.Sum32()%sessionShardCount]
}

// entry returns the record for key, creating it if absent. The shard mutex
// must be held by the caller.
func (s *SessionStore) entry(sh *sessionShard, key string) *SessionState {
	st, ok := sh.sessions[key]
	if !ok {
		s.evictIfFull(sh)
		now := s.now()
		st = &SessionState{Key: key, CreatedAt: now, LastAccessedAt: now}
		sh.sessions[key] = st
	}
	return st
}

// evictIfFull drops the least recently accessed record when the shard is at
// its budget. Caller holds the shard mutex.
func (s *SessionStore) evictIfFull(sh *sessionShard) {
	if len(sh.sessions) < s.maxPerShard {
		return
	}
	var oldestKey string
	var oldest time.Time
	for key, st := range sh.sessions {
		if oldestKey == "" || st.LastAccessedAt.Before(oldest) {
			oldestKey, oldest = key, st.LastAccessedAt
		}
	}
	delete(sh.sessions, oldestKey)
}

// Get returns a snapshot of the session's state, creating the record on first
// sight of the key. This is the store's only mutating read.
func (s *SessionStore) Get(key string) SessionState {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	st := s.entry(sh, key)
	st.LastAccessedAt = s.now()
	return *st
}

// SetExplicitWorkspace records a runtime set_workspace call for the session.
func (s *SessionStore) SetExplicitWorkspace(key, path string) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	st := s.entry(sh, key)
	st.ExplicitWorkspace = path
	st.LastAccessedAt = s.now()
}

// SetExplicitIfUnset records path as the explicit workspace only when none is
// set yet, atomically. Used for single-root auto-adoption. Reports whether
// the value was adopted.
func (s *SessionStore) SetExplicitIfUnset(key, path string) bool {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	st := s.entry(sh, key)
	st.LastAccessedAt = s.now()
	if st.ExplicitWorkspace != "" {
		return false
	}
	st.ExplicitWorkspace = path
	return true
}

// RecordHeaderWorkspace stores the workspace carried by a request-scoped
// signal (transport header or tool argument) so later requests on the same
// session stay sticky without repeating it.
func (s *SessionStore) RecordHeaderWorkspace(key, path string) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	st := s.entry(sh, key)
	st.HeaderWorkspace = path
	st.LastAccessedAt = s.now()
}

// Len returns the number of live session records.
func (s *SessionStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}
