package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticSource struct {
	id  string
	err error
}

func (s staticSource) MachineID() (string, error) { return s.id, s.err }

func TestIdentifier_Deterministic(t *testing.T) {
	src := staticSource{id: "abc123"}

	first, err := Identifier(src, "com.example.fill")
	require.NoError(t, err)
	second, err := Identifier(src, "com.example.fill")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first, 64) // sha256 hex
}

func TestIdentifier_NamespaceChangesOutput(t *testing.T) {
	src := staticSource{id: "abc123"}

	a, err := Identifier(src, "com.example.fill")
	require.NoError(t, err)
	b, err := Identifier(src, "com.example.other")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestIdentifier_SourceError(t *testing.T) {
	src := staticSource{err: errors.New("no such file")}

	_, err := Identifier(src, "com.example.fill")
	require.ErrorIs(t, err, ErrIdentityUnavailable)
}

func TestIdentifier_EmptyMachineID(t *testing.T) {
	_, err := Identifier(staticSource{id: "   \n"}, "com.example.fill")
	require.ErrorIs(t, err, ErrIdentityUnavailable)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	present := filepath.Join(dir, "machine-id")
	require.NoError(t, os.WriteFile(present, []byte("deadbeef\n"), 0o600))

	src := &FileSource{Paths: []string{missing, present}}
	id, err := src.MachineID()
	require.NoError(t, err)
	require.Equal(t, "deadbeef", id)
}

func TestFileSource_AllMissing(t *testing.T) {
	src := &FileSource{Paths: []string{filepath.Join(t.TempDir(), "missing")}}
	_, err := src.MachineID()
	require.Error(t, err)
}
