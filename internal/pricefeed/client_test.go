package pricefeed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rk-goldtrade/internal/types"
)

const sampleFeed = `gtdata = [
{"name":"Spot","bid":2403.50,"ask":2404.10},
{"name":"Gold 99.99","bid":"40100","ask":"40350"},
{"name":"Gold 96.5","bid":"38800","ask":"39050"},
{"name":"สมาคม","bid":"38900","ask":"38950"},
{"name":"Silver","bid":"28.5","ask":"29.1"},
{"name":"Update","bid":"0","ask":"0"}
];`

func TestParseFeed(t *testing.T) {
	t.Parallel()

	t.Run("extracts recognized categories from the blob", func(t *testing.T) {
		t.Parallel()
		quotes, err := ParseFeed(sampleFeed)
		require.NoError(t, err)
		require.Len(t, quotes, 4)
		byType := map[types.GoldType]Quote{}
		for _, q := range quotes {
			byType[q.GoldType] = q
		}
		assert.True(t, byType[types.GoldTypeSpot].Bid.Equal(decimal.NewFromFloat(2403.50)))
		assert.True(t, byType[types.GoldType9999].Ask.Equal(decimal.NewFromInt(40350)))
		assert.True(t, byType[types.GoldType965].Bid.Equal(decimal.NewFromInt(38800)))
		assert.True(t, byType[types.GoldTypeAssociation].Ask.Equal(decimal.NewFromInt(38950)))
	})

	t.Run("no array in payload", func(t *testing.T) {
		t.Parallel()
		_, err := ParseFeed("maintenance page")
		assert.Error(t, err)
	})

	t.Run("unterminated array", func(t *testing.T) {
		t.Parallel()
		_, err := ParseFeed(`gtdata = [{"name":"Spot"`)
		assert.Error(t, err)
	})

	t.Run("array without recognized entries", func(t *testing.T) {
		t.Parallel()
		_, err := ParseFeed(`[{"name":"Silver","bid":"28","ask":"29"}]`)
		assert.Error(t, err)
	})
}

func TestGoldTypeForFeedName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		want types.GoldType
		ok   bool
	}{
		{"Spot", types.GoldTypeSpot, true},
		{"GOLD SPOT", types.GoldTypeSpot, true},
		{"Gold 99.99%", types.GoldType9999, true},
		{"Gold 96.5%", types.GoldType965, true},
		{"Gold Association", types.GoldTypeAssociation, true},
		{"สมาคมทองคำ", types.GoldTypeAssociation, true},
		{"Silver", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := goldTypeForFeedName(tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestApplyMarkup(t *testing.T) {
	t.Parallel()
	quotes := []Quote{
		{GoldType: types.GoldType965, Bid: decimal.NewFromInt(38800), Ask: decimal.NewFromInt(39050)},
		{GoldType: types.GoldTypeSpot, Bid: decimal.NewFromInt(2400), Ask: decimal.NewFromInt(2401)},
	}
	m := MarkupSettings{
		Gold965: Markup{Bid: decimal.NewFromInt(-50), Ask: decimal.NewFromInt(100)},
	}
	out := ApplyMarkup(quotes, m)
	require.Len(t, out, 2)
	assert.True(t, out[0].Bid.Equal(decimal.NewFromInt(38750)))
	assert.True(t, out[0].Ask.Equal(decimal.NewFromInt(39150)))
	// No markup configured for spot: quotes pass through.
	assert.True(t, out[1].Bid.Equal(decimal.NewFromInt(2400)))
	assert.True(t, out[1].Ask.Equal(decimal.NewFromInt(2401)))
}
