package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultEtherscanURL = "https://api.etherscan.io/v2/api"

var ErrUnavailable = errors.New("price unavailable")

// EtherscanSource reads the ETH price from the Etherscan stats/ethprice endpoint.
type EtherscanSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type etherscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type ethPriceResult struct {
	ETHUSD string `json:"ethusd"`
}

func NewEtherscanSource(cfg Config) *EtherscanSource {
	if cfg.URL == "" {
		cfg.URL = defaultEtherscanURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &EtherscanSource{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *EtherscanSource) ETHUSD(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("chainid", "1")
	q.Set("module", "stats")
	q.Set("action", "ethprice")
	q.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnavailable, s.redact(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var out etherscanResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}
	if out.Status != "1" {
		// on failure result is a plain message string
		var detail string
		_ = json.Unmarshal(out.Result, &detail)
		return decimal.Zero, fmt.Errorf("%w: %s: %s", ErrUnavailable, out.Message, detail)
	}

	var res ethPriceResult
	if err := json.Unmarshal(out.Result, &res); err != nil {
		return decimal.Zero, fmt.Errorf("%w: parse result: %v", ErrUnavailable, err)
	}
	p, err := decimal.NewFromString(res.ETHUSD)
	if err != nil || !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: invalid ethusd %q", ErrUnavailable, res.ETHUSD)
	}
	return p, nil
}

func (s *EtherscanSource) redact(msg string) string {
	if s.apiKey == "" {
		return msg
	}
	return strings.ReplaceAll(msg, s.apiKey, "<redacted>")
}
