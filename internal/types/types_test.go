package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGoldType(t *testing.T) {
	t.Parallel()
	for _, gt := range AllGoldTypes() {
		got, ok := ParseGoldType(string(gt))
		assert.True(t, ok)
		assert.Equal(t, gt, got)
	}
	_, ok := ParseGoldType("silver")
	assert.False(t, ok)
	_, ok = ParseGoldType("")
	assert.False(t, ok)
}
