package presence

import (
	"hash/fnv"
	"sort"
	"sync"
)

// shardCount is fixed; registrations for different users land on different
// shards so they never serialize against each other.
const shardCount = 32

// Conn is an opaque connection handle. The registry never calls into it; it
// only stores handles and compares them for identity, so any comparable type
// (in practice a pointer) works.
type Conn interface{}

type shard struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// Registry is the authoritative map of which users are currently reachable
// and through which connection. It is safe for concurrent use; mutations for
// a single user are atomic per key.
type Registry struct {
	shards [shardCount]*shard
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{conns: make(map[string]Conn)}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return r.shards[h.Sum32()%shardCount]
}

// Register binds userID to conn, replacing any previous binding. It returns
// the superseded connection, or nil if the user was not online. Last write
// wins: two racing registrations for the same user resolve to whichever one
// the shard lock admits second.
func (r *Registry) Register(userID string, conn Conn) Conn {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.conns[userID]
	s.conns[userID] = conn
	if prev == conn {
		return nil
	}
	return prev
}

// Unregister removes the binding for userID, but only if conn is the
// connection currently bound. This guards against a stale disconnect racing a
// newer registration for the same user. It reports whether the binding was
// removed.
func (r *Registry) Unregister(userID string, conn Conn) bool {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.conns[userID]; ok && cur == conn {
		delete(s.conns, userID)
		return true
	}
	return false
}

// Lookup returns the connection currently bound to userID. Absence is a
// normal outcome (the user is offline), not an error.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.conns[userID]
	return conn, ok
}

// Online returns a sorted snapshot of all currently reachable user ids.
func (r *Registry) Online() []string {
	users := make([]string, 0)
	for _, s := range r.shards {
		s.mu.RLock()
		for userID := range s.conns {
			users = append(users, userID)
		}
		s.mu.RUnlock()
	}
	sort.Strings(users)
	return users
}
