// Package apisports is a small client for the API-Sports AFL v1 endpoints the sync job needs.
package apisports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const apiKeyHeader = "x-apisports-key"

var (
	// ErrProvider wraps error payloads and unexpected statuses returned by the API.
	ErrProvider = errors.New("provider error")
	// ErrNotFound is returned by single-item lookups that come back empty.
	ErrNotFound = errors.New("provider: not found")
)

type Client struct {
	http     *retryablehttp.Client
	baseURL  string
	apiKey   string
	leagueID int
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// limitedTransport waits on the limiter before every attempt, retries included.
type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return t.next.RoundTrip(req)
}

func New(cfg config.ProviderConfig, m *metrics.Metrics, logger zerolog.Logger) *Client {
	l := logger.With().Str("module", "provider").Str("component", "apisports").Logger()

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = time.Duration(cfg.Timeout) * time.Second
	rc.HTTPClient.Transport = &limitedTransport{
		next:    rc.HTTPClient.Transport,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = time.Duration(cfg.RetryWaitMin) * time.Millisecond
	rc.RetryWaitMax = time.Duration(cfg.RetryWaitMax) * time.Millisecond
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	rc.Logger = leveledLogger{log: l}

	return &Client{
		http:     rc,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		leagueID: cfg.LeagueID,
		metrics:  m,
		log:      l,
	}
}

// get calls endpoint with params and decodes the envelope's response array into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordProviderRequest(endpoint, "error")
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("provider request failed")
		return fmt.Errorf("%w: %s: %v", ErrProvider, endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordProviderRequest(endpoint, strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrProvider, endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", endpoint, err)
	}
	if hasErrors(env.Errors) {
		return fmt.Errorf("%w: %s: %s", ErrProvider, endpoint, string(env.Errors))
	}
	c.log.Debug().Str("endpoint", endpoint).Int("results", env.Results).Dur("took", time.Since(start)).Msg("provider request")

	if len(env.Response) == 0 || bytes.Equal(env.Response, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// hasErrors treats [], {} and null as no errors.
func hasErrors(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "[]", "{}", "null":
		return false
	default:
		return true
	}
}

// Games lists every fixture of the configured league for a season.
func (c *Client) Games(ctx context.Context, season int) ([]Game, error) {
	var out []Game
	params := url.Values{
		"league": {strconv.Itoa(c.leagueID)},
		"season": {strconv.Itoa(season)},
	}
	if err := c.get(ctx, "/games", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Game(ctx context.Context, id int64) (Game, error) {
	var out []Game
	if err := c.get(ctx, "/games", url.Values{"id": {strconv.FormatInt(id, 10)}}, &out); err != nil {
		return Game{}, err
	}
	if len(out) == 0 {
		return Game{}, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	return out[0], nil
}

// GamePlayerStats returns the per-team player lines of one game.
func (c *Client) GamePlayerStats(ctx context.Context, gameID int64) ([]TeamPlayerStats, error) {
	var out []gamePlayerStats
	if err := c.get(ctx, "/games/statistics/players", url.Values{"id": {strconv.FormatInt(gameID, 10)}}, &out); err != nil {
		return nil, err
	}
	var teams []TeamPlayerStats
	for _, g := range out {
		teams = append(teams, g.Teams...)
	}
	return teams, nil
}

func (c *Client) Player(ctx context.Context, id int64) (Player, error) {
	var out []Player
	if err := c.get(ctx, "/players", url.Values{"id": {strconv.FormatInt(id, 10)}}, &out); err != nil {
		return Player{}, err
	}
	if len(out) == 0 {
		return Player{}, fmt.Errorf("player %d: %w", id, ErrNotFound)
	}
	return out[0], nil
}

func (c *Client) Teams(ctx context.Context, season int) ([]Team, error) {
	var out []Team
	params := url.Values{
		"league": {strconv.Itoa(c.leagueID)},
		"season": {strconv.Itoa(season)},
	}
	if err := c.get(ctx, "/teams", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Close() {
	c.http.HTTPClient.CloseIdleConnections()
}
