package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTelegram(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewTelegram("", ""))
	assert.Nil(t, NewTelegram("token", ""))
	assert.Nil(t, NewTelegram("", "12345"))
	assert.Nil(t, NewTelegram("token", "not-a-number"))

	tg := NewTelegram("token", " -100123456 ")
	assert.NotNil(t, tg)
	assert.Equal(t, int64(-100123456), tg.chatID)
}

func TestNilTelegramDropsNotifications(t *testing.T) {
	t.Parallel()
	var tg *Telegram
	// Must not panic.
	tg.TradeExecuted("u1", "965", true, "1", "42000", "42000")
	tg.DepositVerified("u1", "ref", "500")
	tg.WithdrawalRequested("u1", "Gold", "detail")
	tg.WithdrawalReviewed("u1", "Money", "approved")
}

func TestEscapeHTML(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a &amp;&lt;b&gt; c", escapeHTML("a &<b> c"))
	assert.Equal(t, "plain", escapeHTML("plain"))
}
