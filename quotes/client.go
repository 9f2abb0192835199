package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quoteform/config"
	"quoteform/form"
	"quoteform/models"
)

var (
	ErrEmptyTicker    = errors.New("empty ticker")
	ErrNoQuote        = errors.New("no quote for ticker")
	ErrMalformedQuote = errors.New("quote entry has no numeric closePrice")
	ErrFetchFailed    = errors.New("quote request failed")
)

// Client issues one GET per call. It has no timeout, no retries and no
// cache; cancellation only happens if the caller's context is cancelled.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchClosePrice returns the closePrice for ticker. The API key is taken
// from ctx (see config.SetAPIKey).
func (c *Client) FetchClosePrice(ctx context.Context, ticker string) (float64, error) {
	if ticker == "" {
		return 0, ErrEmptyTicker
	}

	apiKey, _ := config.GetAPIKey(ctx)
	u := fmt.Sprintf("%s/%s/quotes?%s", c.baseURL, url.PathEscape(ticker), url.Values{"apikey": {apiKey}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("FetchClosePrice: failed to create request: %w: %w", ErrFetchFailed, err)
	}
	req.Header.Add("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("FetchClosePrice: failed to perform request: %w: %w", ErrFetchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return 0, fmt.Errorf("FetchClosePrice: %w: http status %v", ErrFetchFailed, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, fmt.Errorf("FetchClosePrice: failed to read body: %w: %w", ErrFetchFailed, err)
	}

	return ParseClosePrice(body, ticker)
}

// ParseClosePrice checks body against the expected shape: an object keyed
// by ticker whose entry carries a numeric closePrice.
func ParseClosePrice(body []byte, ticker string) (float64, error) {
	var resp models.QuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("ParseClosePrice: failed to decode json: %w: %w", ErrFetchFailed, err)
	}
	if resp == nil {
		return 0, fmt.Errorf("ParseClosePrice: %w: null body", ErrFetchFailed)
	}

	raw, ok := resp[ticker]
	if !ok || isNull(raw) {
		return 0, fmt.Errorf("ParseClosePrice: %s: %w", ticker, ErrNoQuote)
	}

	var data models.QuoteData
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0, fmt.Errorf("ParseClosePrice: %s: %w: %v", ticker, ErrMalformedQuote, err)
	}
	if data.ClosePrice == nil {
		return 0, fmt.Errorf("ParseClosePrice: %s: %w", ticker, ErrMalformedQuote)
	}

	return *data.ClosePrice, nil
}

// Outcome maps the result of FetchClosePrice onto the action that settles
// the form.
func Outcome(price float64, err error) form.Action {
	switch {
	case err == nil:
		return form.FetchSucceeded{Price: price}
	case errors.Is(err, ErrNoQuote):
		return form.FetchNoQuote{}
	default:
		return form.FetchFailed{}
	}
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
