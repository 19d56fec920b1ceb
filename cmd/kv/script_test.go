package kv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/ValentinKolb/fKV/lib/kvs/cache"
	"github.com/ValentinKolb/fKV/lib/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, typ kvs.IndexType, cached bool) (*session, *bytes.Buffer) {
	opts := kvs.DefaultOptions()
	opts.Heap = &pool.Params{Base: "cli-test", User: t.Name(), HeapID: 4, HeapSize: 16 << 20}
	t.Cleanup(func() {
		pool.Destroy(opts.Heap)
	})

	s, err := kvs.MakeStore(typ, gptr.Null, opts)
	require.NoError(t, err)

	var out bytes.Buffer
	sess := &session{store: s, out: &out}
	if cached {
		sess.cache, err = cache.New(s, 8)
		require.NoError(t, err)
	}
	return sess, &out
}

const script = `
# basic operations
put a 1
put b hello world
put c 3
get b
get missing
del c
del c
del never
get c
findorcreate a 9
findorcreate d 4
del d
findorcreate d 5
scan - -
scan a c (]
scan x -
maintenance
`

const scriptOutput = `OK
OK
OK
hello world
(KeyDoesNotExist)
OK
OK
(KeyDoesNotExist)
(KeyDoesNotExist)
found: 1
inserted
OK
found (deleted)
a = 1
b = hello world
b = hello world
(NoKeyInRange)
OK
`

func TestScript(t *testing.T) {
	for _, tc := range []struct {
		name   string
		typ    kvs.IndexType
		cached bool
	}{
		{"RadixTree", kvs.IndexRadixTree, false},
		{"RadixTreeTiny", kvs.IndexRadixTreeTiny, false},
		{"RadixTreeCached", kvs.IndexRadixTree, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, out := newSession(t, tc.typ, tc.cached)
			require.NoError(t, s.run(strings.NewReader(script)))
			assert.Equal(t, scriptOutput, out.String())
		})
	}
}

func TestScriptScanUnsupported(t *testing.T) {
	s, out := newSession(t, kvs.IndexHashTable, false)
	require.NoError(t, s.run(strings.NewReader("put a 1\nscan - -\n")))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "error:")
	assert.Contains(t, lines[1], "UnsupportedOperation")
}

func TestScriptUsageErrors(t *testing.T) {
	for _, line := range []string{"put a", "get", "scan a", "scan a b <>", "frobnicate x"} {
		s, _ := newSession(t, kvs.IndexRadixTree, false)
		err := s.run(strings.NewReader("put ok 1\n" + line + "\n"))
		require.Error(t, err, line)
		assert.ErrorIs(t, err, errUsage)
		assert.Contains(t, err.Error(), "line 2")
	}
}
