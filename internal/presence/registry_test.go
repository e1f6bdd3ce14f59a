package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct{ name string }

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{"a"}

	prev := r.Register("alice", c)
	assert.Nil(t, prev)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, c, got.(*fakeConn))
}

func TestLookupAbsentIsNormal(t *testing.T) {
	r := NewRegistry()

	got, ok := r.Lookup("nobody")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRegisterSupersedesNotDuplicates(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{"first"}
	second := &fakeConn{"second"}

	r.Register("alice", first)
	prev := r.Register("alice", second)
	assert.Same(t, first, prev.(*fakeConn))

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, second, got.(*fakeConn))
	assert.Equal(t, []string{"alice"}, r.Online())
}

func TestUnregisterGuardsAgainstStaleConnection(t *testing.T) {
	r := NewRegistry()
	stale := &fakeConn{"stale"}
	fresh := &fakeConn{"fresh"}

	r.Register("alice", stale)
	r.Register("alice", fresh)

	// The stale session's disconnect must not evict the fresh binding.
	assert.False(t, r.Unregister("alice", stale))
	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, fresh, got.(*fakeConn))

	assert.True(t, r.Unregister("alice", fresh))
	_, ok = r.Lookup("alice")
	assert.False(t, ok)
}

func TestOnlineSortedSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register("carol", &fakeConn{})
	r.Register("alice", &fakeConn{})
	r.Register("bob", &fakeConn{})

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.Online())
}

func TestConcurrentRegistrationsAcrossKeys(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			c := &fakeConn{userID}
			r.Register(userID, c)
			got, ok := r.Lookup(userID)
			assert.True(t, ok)
			assert.Same(t, c, got.(*fakeConn))
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Online(), 100)
}

func TestConcurrentSupersedeSameKey(t *testing.T) {
	r := NewRegistry()

	conns := make([]*fakeConn, 50)
	var wg sync.WaitGroup
	for i := range conns {
		conns[i] = &fakeConn{fmt.Sprintf("c%d", i)}
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			r.Register("alice", c)
		}(conns[i])
	}
	wg.Wait()

	// Exactly one binding survives, and it is one of the racers.
	got, ok := r.Lookup("alice")
	require.True(t, ok)
	found := false
	for _, c := range conns {
		if got.(*fakeConn) == c {
			found = true
			break
		}
	}
	assert.True(t, found)
	assert.Equal(t, []string{"alice"}, r.Online())
}
