package pionex

import (
	"net/http"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
)

type Client struct {
	baseURL string
	apiKey  string
	secret  string

	httpClient *http.Client
	log        *logger.Logger
}

func New(baseURL, apiKey, secret string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}
