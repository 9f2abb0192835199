package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteform/config"
	"quoteform/form"
	"quoteform/quotes"
)

type fakeFetcher struct {
	mu      sync.Mutex
	tickers []string
	keys    []string
	price   float64
	err     error
	started chan string
	release chan struct{}
}

func (f *fakeFetcher) FetchClosePrice(ctx context.Context, ticker string) (float64, error) {
	key, _ := config.GetAPIKey(ctx)

	f.mu.Lock()
	f.tickers = append(f.tickers, ticker)
	f.keys = append(f.keys, key)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- ticker
	}
	if f.release != nil {
		<-f.release
	}
	return f.price, f.err
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tickers...)
}

func (f *fakeFetcher) apiKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func staticKey(key string) KeyResolver {
	return func(ctx context.Context) string { return key }
}

func postForm(t *testing.T, handler http.HandlerFunc, path string, vals url.Values, asJSON bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestFormController_Inputs(t *testing.T) {
	t.Run("ticker is shown upper-cased", func(t *testing.T) {
		fc := NewFormController(&fakeFetcher{}, staticKey(""))

		rec := postForm(t, fc.SetTicker, "/ticker", url.Values{"ticker": {"aapl"}}, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "AAPL", decodeState(t, rec).View.Ticker)
	})

	t.Run("form posts redirect back to the page", func(t *testing.T) {
		fc := NewFormController(&fakeFetcher{}, staticKey(""))

		rec := postForm(t, fc.SetTicker, "/ticker", url.Values{"ticker": {"msft"}}, false)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Equal(t, "MSFT", fc.State().Ticker)
	})

	t.Run("delta is clamped and shown to two decimals", func(t *testing.T) {
		fc := NewFormController(&fakeFetcher{}, staticKey(""))

		rec := postForm(t, fc.SetDelta, "/delta", url.Values{"delta": {"0.37"}}, true)
		assert.Equal(t, "0.37", decodeState(t, rec).View.DeltaLabel)

		rec = postForm(t, fc.SetDelta, "/delta", url.Values{"delta": {"4"}}, true)
		assert.Equal(t, "1.00", decodeState(t, rec).View.DeltaLabel)
	})

	t.Run("unparsable delta leaves the value alone", func(t *testing.T) {
		fc := NewFormController(&fakeFetcher{}, staticKey(""))
		fc.Dispatch(form.DeltaChanged{Value: 0.2})

		rec := postForm(t, fc.SetDelta, "/delta", url.Values{"delta": {"abc"}}, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0.2, decodeState(t, rec).State.Delta)
	})
}

func TestFormController_FetchQuote(t *testing.T) {
	t.Run("price is displayed on success", func(t *testing.T) {
		fetcher := &fakeFetcher{price: 123.4}
		fc := NewFormController(fetcher, staticKey("secret"))

		rec := postForm(t, fc.FetchQuote, "/quote", url.Values{"ticker": {"aapl"}}, true)
		resp := decodeState(t, rec)

		assert.Equal(t, "Stock Price: $123.40", resp.View.PriceLine)
		assert.Empty(t, resp.View.Error)
		assert.False(t, resp.State.Loading)
		assert.Equal(t, []string{"AAPL"}, fetcher.calls())
		assert.Equal(t, []string{"secret"}, fetcher.apiKeys())
	})

	t.Run("missing ticker key in the response", func(t *testing.T) {
		fc := NewFormController(&fakeFetcher{err: quotes.ErrNoQuote}, staticKey(""))

		rec := postForm(t, fc.FetchQuote, "/quote", url.Values{"ticker": {"zzzz"}}, true)
		resp := decodeState(t, rec)

		assert.Equal(t, "No quote found for the given ticker", resp.View.Error)
		assert.Empty(t, resp.View.PriceLine)
		assert.False(t, resp.State.Loading)
	})

	t.Run("failed request", func(t *testing.T) {
		fc := NewFormController(&fakeFetcher{err: errors.New("connection refused")}, staticKey(""))

		rec := postForm(t, fc.FetchQuote, "/quote", url.Values{"ticker": {"aapl"}}, true)
		resp := decodeState(t, rec)

		assert.Equal(t, "Failed to fetch stock price", resp.View.Error)
		assert.Empty(t, resp.View.PriceLine)
		assert.False(t, resp.State.Loading)
	})

	t.Run("each click issues one request", func(t *testing.T) {
		fetcher := &fakeFetcher{price: 1}
		fc := NewFormController(fetcher, staticKey(""))
		fc.Dispatch(form.TickerChanged{Text: "ibm"})

		postForm(t, fc.FetchQuote, "/quote", url.Values{}, true)
		postForm(t, fc.FetchQuote, "/quote", url.Values{}, true)
		assert.Equal(t, []string{"IBM", "IBM"}, fetcher.calls())
	})
}

func TestFormController_FetchLogsFault(t *testing.T) {
	hook := logtest.NewGlobal()
	t.Cleanup(hook.Reset)

	fc := NewFormController(&fakeFetcher{err: errors.New("connection refused")}, staticKey(""))
	fc.Dispatch(form.TickerChanged{Text: "aapl"})
	fc.Fetch(context.Background())

	var errEntries []*log.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.ErrorLevel {
			errEntries = append(errEntries, entry)
		}
	}

	require.Len(t, errEntries, 1)
	entry := errEntries[0]
	assert.Contains(t, entry.Message, "connection refused")
	assert.Equal(t, "AAPL", entry.Data["ticker"])
	requestID, ok := entry.Data["request_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, requestID)
}

func TestFormController_PendingFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		price:   50,
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	fc := NewFormController(fetcher, staticKey(""))
	fc.Dispatch(form.TickerChanged{Text: "spy"})

	var wg sync.WaitGroup
	click := func() {
		defer wg.Done()
		postForm(t, fc.FetchQuote, "/quote", url.Values{}, true)
	}

	wg.Add(1)
	go click()
	waitStarted(t, fetcher.started)

	rec := httptest.NewRecorder()
	fc.GetState(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	resp := decodeState(t, rec)
	assert.True(t, resp.State.Loading)
	assert.Equal(t, "Loading...", resp.View.ButtonLabel)

	// a second click while the first is pending still goes out
	wg.Add(1)
	go click()
	waitStarted(t, fetcher.started)
	assert.Len(t, fetcher.calls(), 2)

	close(fetcher.release)
	wg.Wait()

	state := fc.State()
	assert.False(t, state.Loading)
	assert.Equal(t, "Stock Price: $50.00", state.View().PriceLine)
}

func waitStarted(t *testing.T, started <-chan string) {
	t.Helper()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
	}
}

func TestFormController_Index(t *testing.T) {
	fc := NewFormController(&fakeFetcher{price: 9.5}, staticKey(""))
	fc.Dispatch(form.TickerChanged{Text: "tsla"})
	fc.Fetch(context.Background())

	rec := httptest.NewRecorder()
	fc.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ticker: TSLA")
	assert.Contains(t, body, "Delta: 0.00")
	assert.Contains(t, body, "Stock Price: $9.50")
	assert.Contains(t, body, "Get Stock Price")
}
