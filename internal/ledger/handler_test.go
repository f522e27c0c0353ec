package ledger

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rk-goldtrade/internal/types"
)

func TestParseTradeRequest(t *testing.T) {
	t.Parallel()

	t.Run("valid buy", func(t *testing.T) {
		t.Parallel()
		p, err := parseTradeRequest(tradeRequest{
			GoldType:     "965",
			Amount:       "2.5",
			PricePerUnit: "42000",
			Direction:    "buy",
		})
		require.NoError(t, err)
		assert.Equal(t, types.GoldType965, p.goldType)
		assert.True(t, p.qty.Equal(dec("2.5")))
		assert.True(t, p.price.Equal(dec("42000")))
		assert.Equal(t, types.TradeDirectionBuy, p.direction)
	})

	t.Run("direction and gold type are case insensitive", func(t *testing.T) {
		t.Parallel()
		p, err := parseTradeRequest(tradeRequest{
			GoldType:     " SPOT ",
			Amount:       "1",
			PricePerUnit: "2400",
			Direction:    " SELL ",
		})
		require.NoError(t, err)
		assert.Equal(t, types.GoldTypeSpot, p.goldType)
		assert.Equal(t, types.TradeDirectionSell, p.direction)
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name string
			req  tradeRequest
			want error
		}{
			{
				name: "unknown gold type",
				req:  tradeRequest{GoldType: "silver", Amount: "1", PricePerUnit: "1", Direction: "buy"},
			},
			{
				name: "unparseable amount",
				req:  tradeRequest{GoldType: "965", Amount: "abc", PricePerUnit: "1", Direction: "buy"},
				want: ErrInvalidQuantity,
			},
			{
				name: "unparseable price",
				req:  tradeRequest{GoldType: "965", Amount: "1", PricePerUnit: "", Direction: "buy"},
				want: ErrInvalidPrice,
			},
			{
				name: "unknown direction",
				req:  tradeRequest{GoldType: "965", Amount: "1", PricePerUnit: "1", Direction: "hold"},
			},
		}
		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				_, err := parseTradeRequest(tc.req)
				require.Error(t, err)
				if tc.want != nil {
					assert.ErrorIs(t, err, tc.want)
				}
			})
		}
	})
}

func TestValidateTradeInput(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		qty   string
		price string
		want  error
	}{
		{"ok", "1", "2400", nil},
		{"zero price allowed", "1", "0", nil},
		{"zero qty", "0", "2400", ErrInvalidQuantity},
		{"negative qty", "-1", "2400", ErrInvalidQuantity},
		{"negative price", "1", "-5", ErrInvalidPrice},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := validateTradeInput(dec(tc.qty), dec(tc.price))
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeCachedPositions(t *testing.T) {
	t.Parallel()

	t.Run("valid payload round-trips", func(t *testing.T) {
		t.Parallel()
		raw := `[{"gold_type":"965","quantity":"3","total_cost":"600","average_cost":"200"}]`
		positions, ok := decodeCachedPositions(raw)
		require.True(t, ok)
		require.Len(t, positions, 1)
		assert.Equal(t, types.GoldType965, positions[0].GoldType)
		assert.True(t, positions[0].Quantity.Equal(dec("3")))
		assert.True(t, positions[0].AverageCost.Equal(dec("200")))
	})

	t.Run("corrupt payload is a miss", func(t *testing.T) {
		t.Parallel()
		_, ok := decodeCachedPositions("{not json")
		assert.False(t, ok)
	})

	t.Run("empty list is a valid hit", func(t *testing.T) {
		t.Parallel()
		positions, ok := decodeCachedPositions("[]")
		assert.True(t, ok)
		assert.Empty(t, positions)
	})
}

func TestStatusForError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want int
	}{
		{ErrInsufficientHolding, http.StatusBadRequest},
		{ErrInsufficientFunds, http.StatusBadRequest},
		{ErrInvalidQuantity, http.StatusBadRequest},
		{ErrInvalidPrice, http.StatusBadRequest},
		{ErrStorageConflict, http.StatusConflict},
		{errors.Join(ErrStorageConflict, errors.New("40001")), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForError(tc.err))
	}
}
