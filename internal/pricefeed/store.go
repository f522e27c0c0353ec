package pricefeed

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/types"
)

// Markup is the shop's admin-configured per-category price adjustment,
// added on top of the raw feed price.
type Markup struct {
	Bid decimal.Decimal `json:"bid"`
	Ask decimal.Decimal `json:"ask"`
}

type MarkupSettings struct {
	Spot        Markup    `json:"spot"`
	Gold9999    Markup    `json:"9999"`
	Gold965     Markup    `json:"965"`
	Association Markup    `json:"association"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m MarkupSettings) For(goldType types.GoldType) Markup {
	switch goldType {
	case types.GoldTypeSpot:
		return m.Spot
	case types.GoldType9999:
		return m.Gold9999
	case types.GoldType965:
		return m.Gold965
	case types.GoldTypeAssociation:
		return m.Association
	}
	return Markup{}
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetMarkup(ctx context.Context) (MarkupSettings, error) {
	var m MarkupSettings
	err := s.pool.QueryRow(ctx,
		"select gold_spot_bid, gold_spot_ask, gold_9999_bid, gold_9999_ask, gold_965_bid, gold_965_ask, gold_association_bid, gold_association_ask, updated_at from markup_settings where id = 1").
		Scan(&m.Spot.Bid, &m.Spot.Ask, &m.Gold9999.Bid, &m.Gold9999.Ask, &m.Gold965.Bid, &m.Gold965.Ask, &m.Association.Bid, &m.Association.Ask, &m.UpdatedAt)
	return m, err
}

func (s *Store) SetMarkup(ctx context.Context, m MarkupSettings, updatedBy string) error {
	_, err := s.pool.Exec(ctx,
		"update markup_settings set gold_spot_bid = $1, gold_spot_ask = $2, gold_9999_bid = $3, gold_9999_ask = $4, gold_965_bid = $5, gold_965_ask = $6, gold_association_bid = $7, gold_association_ask = $8, updated_at = $9, updated_by = $10 where id = 1",
		m.Spot.Bid, m.Spot.Ask, m.Gold9999.Bid, m.Gold9999.Ask, m.Gold965.Bid, m.Gold965.Ask, m.Association.Bid, m.Association.Ask, time.Now().UTC(), updatedBy)
	return err
}

// ApplyMarkup shifts raw feed quotes by the configured markup. Marked-up
// quotes are what users trade against; the ledger itself treats price as
// an opaque input.
func ApplyMarkup(quotes []Quote, m MarkupSettings) []Quote {
	out := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		mk := m.For(q.GoldType)
		out = append(out, Quote{
			GoldType: q.GoldType,
			Bid:      q.Bid.Add(mk.Bid),
			Ask:      q.Ask.Add(mk.Ask),
		})
	}
	return out
}
