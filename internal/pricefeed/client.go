package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/types"
)

// Quote is one gold category's raw feed price before markup.
type Quote struct {
	GoldType types.GoldType  `json:"gold_type"`
	Bid      decimal.Decimal `json:"bid"`
	Ask      decimal.Decimal `json:"ask"`
}

// Client fetches the upstream Thai gold feed. The feed serves a text
// blob with a JSON array embedded between the first pair of brackets;
// entries outside the array (timestamps, banners) are noise.
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

// feedNumber accepts quoted and bare numbers; the feed is not
// consistent about which it serves.
type feedNumber string

func (n *feedNumber) UnmarshalJSON(b []byte) error {
	*n = feedNumber(strings.Trim(strings.TrimSpace(string(b)), `"`))
	return nil
}

type feedItem struct {
	Name string     `json:"name"`
	Bid  feedNumber `json:"bid"`
	Ask  feedNumber `json:"ask"`
}

func (c *Client) Fetch(ctx context.Context) ([]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return ParseFeed(string(raw))
}

// ParseFeed extracts the embedded JSON array and maps recognized
// categories. Unrecognized entries are skipped, not errors: the feed
// carries rows (update timestamps, silver) this system never trades.
func ParseFeed(raw string) ([]Quote, error) {
	start := strings.Index(raw, "[")
	if start < 0 {
		return nil, errors.New("price feed: no array in payload")
	}
	end := strings.Index(raw[start:], "]")
	if end < 0 {
		return nil, errors.New("price feed: unterminated array in payload")
	}
	jsonStr := raw[start : start+end+1]
	var items []feedItem
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		return nil, fmt.Errorf("price feed: %w", err)
	}
	var out []Quote
	for _, item := range items {
		goldType, ok := goldTypeForFeedName(item.Name)
		if !ok {
			continue
		}
		bid, err := decimal.NewFromString(string(item.Bid))
		if err != nil {
			continue
		}
		ask, err := decimal.NewFromString(string(item.Ask))
		if err != nil {
			continue
		}
		out = append(out, Quote{GoldType: goldType, Bid: bid, Ask: ask})
	}
	if len(out) == 0 {
		return nil, errors.New("price feed: no recognized gold entries")
	}
	return out, nil
}

func goldTypeForFeedName(name string) (types.GoldType, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(n, "spot"):
		return types.GoldTypeSpot, true
	case strings.Contains(n, "99.99"):
		return types.GoldType9999, true
	case strings.Contains(n, "96.5"):
		return types.GoldType965, true
	case strings.Contains(n, "สมาคม"), strings.Contains(n, "association"):
		return types.GoldTypeAssociation, true
	}
	return "", false
}
