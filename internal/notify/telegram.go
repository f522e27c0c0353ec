package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const telegramAPIBaseURL = "https://api.telegram.org"

// Telegram posts operational notifications to the shop's review chat.
// Sends are fire-and-forget: a failed or slow send never blocks, fails
// or rolls back the operation that triggered it. A nil Telegram (no bot
// token configured) silently drops everything.
type Telegram struct {
	token  string
	chatID int64
	client *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	token = strings.TrimSpace(token)
	chatID = strings.TrimSpace(chatID)
	if token == "" || chatID == "" {
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(chatID, "@"), 10, 64)
	if err != nil {
		log.Printf("telegram: invalid TELEGRAM_CHAT_ID %q, notifications disabled", chatID)
		return nil
	}
	return &Telegram{token: token, chatID: id, client: &http.Client{Timeout: 10 * time.Second}}
}

func (t *Telegram) TradeExecuted(userID, goldType string, isBuy bool, amount, pricePerUnit, total string) {
	if t == nil {
		return
	}
	verb := "Sale"
	icon := "📉"
	if isBuy {
		verb = "Purchase"
		icon = "🪙"
	}
	text := fmt.Sprintf("%s <b>Gold %s</b>\n👤 User: %s\n🏷 Type: %s\n⚖️ Amount: %s\n💵 Price/unit: ฿%s\n💰 Total: ฿%s",
		icon, verb, escapeHTML(userID), escapeHTML(goldType), escapeHTML(amount), escapeHTML(pricePerUnit), escapeHTML(total))
	t.sendAsync(text)
}

func (t *Telegram) DepositVerified(userID, transRef, amount string) {
	if t == nil {
		return
	}
	text := fmt.Sprintf("💰 <b>New Deposit</b>\n👤 User: %s\n💵 Amount: ฿%s\n🔖 Ref: %s",
		escapeHTML(userID), escapeHTML(amount), escapeHTML(transRef))
	t.sendAsync(text)
}

func (t *Telegram) WithdrawalRequested(userID, kind, detail string) {
	if t == nil {
		return
	}
	text := fmt.Sprintf("📦 <b>New %s Withdrawal Request</b>\n👤 User: %s\n%s",
		escapeHTML(kind), escapeHTML(userID), escapeHTML(detail))
	t.sendAsync(text)
}

func (t *Telegram) WithdrawalReviewed(userID, kind, status string) {
	if t == nil {
		return
	}
	text := fmt.Sprintf("🧾 <b>%s Withdrawal %s</b>\n👤 User: %s",
		escapeHTML(kind), escapeHTML(status), escapeHTML(userID))
	t.sendAsync(text)
}

func (t *Telegram) sendAsync(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		if err := t.sendMessage(ctx, text); err != nil {
			log.Printf("telegram notify: %v", err)
		}
	}()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBaseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
