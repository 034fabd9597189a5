package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(32)
	b := GenerateRandByteArray(32)

	require.Len(t, a, 32)
	require.Len(t, b, 32)
	if assert.ObjectsAreEqual(a, b) {
		t.Logf("warning: two GenerateRandByteArray(32) results are identical; extremely unlikely")
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("probe-image-bytes")
	WipeByteArray(buf)
	for i, v := range buf {
		assert.Zerof(t, v, "byte %d not wiped", i)
	}

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestSentinelsMatchWhenWrapped(t *testing.T) {
	wrapped := fmt.Errorf("db error: %w", ErrorNotFound)
	assert.True(t, errors.Is(wrapped, ErrorNotFound))
	assert.False(t, errors.Is(wrapped, ErrStateConflict))
}
