package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeVersioned struct {
	data     map[string][]byte
	versions map[string]uint64
}

func (f *fakeVersioned) ReadVersioned(key []byte) ([]byte, uint64, error) {
	return f.data[string(key)], f.versions[string(key)], nil
}

func TestOverlayShadowsAndTracksReads(t *testing.T) {
	src := &fakeVersioned{
		data:     map[string][]byte{"a": []byte("1"), "b": []byte("2")},
		versions: map[string]uint64{"a": 3, "b": 7},
	}
	o := NewOverlay(src)

	v, err := o.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	require.NoError(t, o.Put([]byte("a"), []byte("9")))
	v, err = o.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("9"), v)

	require.NoError(t, o.Delete([]byte("b")))
	v, err = o.Get([]byte("b"))
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = o.Get([]byte("c"))
	require.NoError(t, err)
	require.Nil(t, v)

	require.Equal(t, map[string]uint64{"a": 3, "c": 0}, o.ReadSet())
	writes := o.WriteSet()
	require.Len(t, writes, 2)
	require.Equal(t, "a", string(writes[0].Key))
	require.Equal(t, []byte("9"), writes[0].Value)
	require.True(t, writes[1].Delete)

	_, ok := src.data["b"]
	require.True(t, ok)
}

func TestManagerOverOverlay(t *testing.T) {
	src := &fakeVersioned{data: map[string][]byte{}, versions: map[string]uint64{}}
	o := NewOverlay(src)
	mgr := NewManager(o)
	require.NoError(t, mgr.RegisterToken("RWD", "Reward", 0))
	require.True(t, mgr.TokenExists("RWD"))
	require.Empty(t, src.data)
	require.NotEmpty(t, o.WriteSet())
}
