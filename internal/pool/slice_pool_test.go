package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInt64Slice(t *testing.T) {
	s, release := GetInt64Slice(10)
	require.Len(t, s, 10)
	release()

	s, release = GetInt64Slice(3)
	defer release()
	require.Len(t, s, 3)
}

func TestGetFloat64Slice(t *testing.T) {
	s, release := GetFloat64Slice(5)
	defer release()

	require.Len(t, s, 5)
	s[4] = 1.5
	require.InDelta(t, 1.5, s[4], 0)
}

func TestGetStringSlice(t *testing.T) {
	s, release := GetStringSlice(2)
	defer release()

	require.Len(t, s, 2)
}

func TestGetSlice_GrowsBeyondPooledCapacity(t *testing.T) {
	small, release := GetInt64Slice(1)
	release()
	_ = small

	large, release := GetInt64Slice(4096)
	defer release()
	require.Len(t, large, 4096)
}
