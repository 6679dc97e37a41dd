package pty

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every event the registry emits so tests can assert
// on ordering and content without a real front end.
type recordingSink struct {
	mu         sync.Mutex
	outputs    map[string][]string
	closed     map[string]bool
	structured []StructuredOutputEvent
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		outputs: make(map[string][]string),
		closed:  make(map[string]bool),
	}
}

func (s *recordingSink) EmitOutput(sessionID, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[sessionID] = append(s.outputs[sessionID], data)
	return nil
}

func (s *recordingSink) EmitClose(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed[sessionID] = true
}

func (s *recordingSink) EmitStructured(ev StructuredOutputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.structured = append(s.structured, ev)
}

func (s *recordingSink) concat(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ""
	for _, chunk := range s.outputs[sessionID] {
		out += chunk
	}
	return out
}

func (s *recordingSink) isClosed(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[sessionID]
}

func testLogger() Logger {
	return log.New(os.Stderr, "pty-test: ", 0)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestSpawnWriteReadKill(t *testing.T) {
	sink := newRecordingSink()
	reg := NewRegistry(sink, testLogger())

	id, err := reg.Spawn("s1")
	require.NoError(t, err)
	require.Equal(t, "s1", id)

	infos := reg.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "s1", infos[0].SessionID)
	assert.True(t, infos[0].IsAlive)

	require.NoError(t, reg.Write("s1", []byte("echo hello\n")))

	waitFor(t, 2*time.Second, func() bool {
		return contains(sink.concat("s1"), "hello")
	})

	require.NoError(t, reg.Kill("s1"))

	waitFor(t, 2*time.Second, func() bool { return sink.isClosed("s1") })

	assert.Empty(t, reg.List())
}

func TestSpawnIsIdempotent(t *testing.T) {
	sink := newRecordingSink()
	reg := NewRegistry(sink, testLogger())

	id1, err := reg.Spawn("dup")
	require.NoError(t, err)

	sess1, ok := reg.sessions["dup"]
	require.True(t, ok)
	pid1 := sess1.Pid()

	id2, err := reg.Spawn("dup")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	sess2 := reg.sessions["dup"]
	assert.Equal(t, pid1, sess2.Pid())

	_ = reg.Kill("dup")
}

func TestSpawnMintsUUIDWhenIDEmpty(t *testing.T) {
	reg := NewRegistry(nil, testLogger())
	id, err := reg.Spawn("")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_ = reg.Kill(id)
}

func TestWriteResizeKillNotFound(t *testing.T) {
	reg := NewRegistry(nil, testLogger())

	err := reg.Write("ghost", []byte("x"))
	assert.Error(t, err)

	assert.Error(t, reg.Resize("ghost", 10, 10))
	assert.Error(t, reg.Kill("ghost"))
	assert.Error(t, reg.Inject("ghost", "echo hi"))
}

func TestInjectMany(t *testing.T) {
	sink := newRecordingSink()
	reg := NewRegistry(sink, testLogger())

	id, err := reg.Spawn("s3")
	require.NoError(t, err)

	start := time.Now()
	err = reg.InjectMany(context.Background(), id, []string{"echo a", "echo b", "echo c"})
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)

	waitFor(t, 2*time.Second, func() bool {
		out := sink.concat(id)
		return contains(out, "a") && contains(out, "b") && contains(out, "c")
	})

	_ = reg.Kill(id)
}

func TestKillTerminatesDescendants(t *testing.T) {
	sink := newRecordingSink()
	reg := NewRegistry(sink, testLogger())

	id, err := reg.Spawn("s4")
	require.NoError(t, err)

	sess := reg.sessions[id]
	require.NoError(t, sess.Inject("sleep 60 & echo $!"))

	var childPid int
	waitFor(t, 2*time.Second, func() bool {
		out := sink.concat(id)
		childPid = lastNumber(out)
		return childPid > 0
	})

	require.NoError(t, reg.Kill(id))

	waitFor(t, 2*time.Second, func() bool { return !processAlive(childPid) })
	assert.False(t, processAlive(childPid))
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// lastNumber extracts the final run of digits in s, used to recover the
// background child's pid echoed by "echo $!".
func lastNumber(s string) int {
	n := 0
	found := false
	cur := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			cur = cur*10 + int(c-'0')
			found = true
		} else if found {
			n = cur
			cur = 0
			found = false
		}
	}
	if found {
		n = cur
	}
	return n
}
