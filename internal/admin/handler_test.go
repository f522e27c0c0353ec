package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		approve bool
		ok      bool
	}{
		{"approved", true, true},
		{"rejected", false, true},
		{" Approved ", true, true},
		{"REJECTED", false, true},
		{"pending", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		approve, err := parseReviewStatus(tc.raw)
		if !tc.ok {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.approve, approve, tc.raw)
	}
}

func TestParseMarkupPair(t *testing.T) {
	t.Parallel()
	m, err := parseMarkupPair(markupPair{Bid: " -50 ", Ask: "100.25"})
	require.NoError(t, err)
	assert.Equal(t, "-50", m.Bid.String())
	assert.Equal(t, "100.25", m.Ask.String())

	_, err = parseMarkupPair(markupPair{Bid: "abc", Ask: "1"})
	assert.Error(t, err)
	_, err = parseMarkupPair(markupPair{Bid: "1", Ask: ""})
	assert.Error(t, err)
}
