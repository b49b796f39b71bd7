package passphrase

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSource(env map[string]string) *Source {
	s := NewSource("NFTSTAKE_PASS", "pass: ")
	s.lookup = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	s.stdin = -1
	s.stderr = io.Discard
	return s
}

func TestSourceFromEnvironment(t *testing.T) {
	s := testSource(map[string]string{"NFTSTAKE_PASS": "hunter2"})
	got, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, "hunter2", got)
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	_, err := testSource(map[string]string{"NFTSTAKE_PASS": "  "}).Get()
	require.ErrorContains(t, err, "set but empty")
}

func TestSourceWithoutTerminal(t *testing.T) {
	s := testSource(nil)
	_, err := s.Get()
	require.ErrorContains(t, err, "NFTSTAKE_PASS")

	// cached
	_, again := s.Get()
	require.Equal(t, err, again)
}
