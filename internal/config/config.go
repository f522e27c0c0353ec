package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr         string
	DBDSN            string
	JWTIssuer        string
	JWTSecret        string
	JWTTTL           time.Duration
	InternalToken    string
	WebSocketOrigin  string
	RedisAddr        string
	RedisPassword    string
	TelegramBotToken string
	TelegramChatID   string
	PriceFeedURL     string
	PriceFeedEvery   time.Duration
	SlipAPIBaseURL   string
	SlipAPIKey       string
	UIDist           string
}

const defaultPriceFeedURL = "http://www.thaigold.info/RealTimeDataV2/gtdata_.txt"

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	if c.InternalToken == "" {
		missing = append(missing, "INTERNAL_API_TOKEN")
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		c.WebSocketOrigin = "*"
	}
	c.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.RedisPassword = os.Getenv("REDIS_PASSWORD")
	c.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	c.TelegramChatID = strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID"))
	c.PriceFeedURL = strings.TrimSpace(os.Getenv("PRICE_FEED_URL"))
	if c.PriceFeedURL == "" {
		c.PriceFeedURL = defaultPriceFeedURL
	}
	feedEvery := os.Getenv("PRICE_FEED_INTERVAL")
	if feedEvery == "" {
		c.PriceFeedEvery = time.Minute
	} else {
		d, err := time.ParseDuration(feedEvery)
		if err != nil {
			return c, errors.New("invalid PRICE_FEED_INTERVAL")
		}
		c.PriceFeedEvery = d
	}
	c.SlipAPIBaseURL = strings.TrimSpace(os.Getenv("EASYSLIP_BASE_URL"))
	if c.SlipAPIBaseURL == "" {
		c.SlipAPIBaseURL = "https://developer.easyslip.com/api/v1"
	}
	c.SlipAPIKey = strings.TrimSpace(os.Getenv("EASYSLIP_API_KEY"))
	c.UIDist = os.Getenv("UI_DIST")
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + join(missing))
	}
	return c, nil
}

func join(items []string) string {
	if len(items) == 0 {
		return ""
	}
	out := items[0]
	for i := 1; i < len(items); i++ {
		out += "," + items[i]
	}
	return out
}
