package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGeneratorNewID(t *testing.T) {
	t.Parallel()

	gen := New()
	id1, err := gen.NewID()
	require.NoError(t, err)
	id2, err := gen.NewID()
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	parsed, err := goUUID.Parse(id1)
	require.NoError(t, err)
	require.Equal(t, goUUID.Version(7), parsed.Version())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got, ok := Normalize(" 0190F5A2-7C1B-7E4A-9B2C-3D4E5F607182 ")
	require.True(t, ok)
	require.Equal(t, "0190f5a2-7c1b-7e4a-9b2c-3d4e5f607182", got)

	for _, raw := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000", "'; DROP TABLE visitors;--"} {
		_, ok := Normalize(raw)
		require.False(t, ok, raw)
	}
}
