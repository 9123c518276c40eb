// Package github is a minimal read-only client for the GitHub REST API,
// covering repository discovery and file retrieval for profile analysis.
package github

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.github.com"
	userAgent = "skillsight (github.com/yihu111/tech-europe-hackathon)"
	// Max value accepted by the list endpoints.
	perPage = 100

	defaultMaxRetries = 2
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// MaxRetries bounds retries for rate-limited and transport failures.
	MaxRetries int
}

// New creates a client. The token may be empty: unauthenticated requests work
// against public data with a far lower rate limit.
func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:     logger,
		UserAgent:  userAgent,
		MaxRetries: defaultMaxRetries,
	}
}
