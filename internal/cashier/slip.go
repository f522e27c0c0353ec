package cashier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VerifiedSlip is the subset of the slip-verification response the
// cashier acts on. The verification provider is an external
// collaborator; everything beyond reference and amount is opaque here.
type VerifiedSlip struct {
	TransRef string
	Amount   decimal.Decimal
}

type SlipVerifier interface {
	Verify(ctx context.Context, payload string) (VerifiedSlip, error)
}

var ErrSlipRejected = errors.New("slip verification rejected")

// EasySlipClient verifies bank-transfer slips against the EasySlip API.
type EasySlipClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewEasySlipClient(baseURL, apiKey string) *EasySlipClient {
	return &EasySlipClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type easySlipResponse struct {
	Status int `json:"status"`
	Data   struct {
		TransRef string `json:"transRef"`
		Amount   struct {
			Amount json.Number `json:"amount"`
		} `json:"amount"`
	} `json:"data"`
	Message string `json:"message"`
}

func (c *EasySlipClient) Verify(ctx context.Context, payload string) (VerifiedSlip, error) {
	if c.apiKey == "" {
		return VerifiedSlip{}, errors.New("slip verification is not configured")
	}
	body, err := json.Marshal(map[string]string{"payload": payload})
	if err != nil {
		return VerifiedSlip{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return VerifiedSlip{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return VerifiedSlip{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return VerifiedSlip{}, err
	}
	var parsed easySlipResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return VerifiedSlip{}, fmt.Errorf("slip verify: %w", err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Status != 200 {
		if parsed.Message != "" {
			return VerifiedSlip{}, fmt.Errorf("%w: %s", ErrSlipRejected, parsed.Message)
		}
		return VerifiedSlip{}, ErrSlipRejected
	}
	amount, err := decimal.NewFromString(parsed.Data.Amount.Amount.String())
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return VerifiedSlip{}, fmt.Errorf("%w: invalid amount", ErrSlipRejected)
	}
	if strings.TrimSpace(parsed.Data.TransRef) == "" {
		return VerifiedSlip{}, fmt.Errorf("%w: missing transaction reference", ErrSlipRejected)
	}
	return VerifiedSlip{TransRef: parsed.Data.TransRef, Amount: amount}, nil
}
