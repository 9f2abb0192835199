package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"

	"quoteform/config"
	"quoteform/form"
	"quoteform/quotes"
	"quoteform/views"
)

type QuoteFetcher interface {
	FetchClosePrice(ctx context.Context, ticker string) (float64, error)
}

// KeyResolver yields the quote API key for a single fetch.
type KeyResolver func(ctx context.Context) string

type FormInput struct {
	Ticker string `schema:"ticker"`
	Delta  string `schema:"delta"`
}

type StateResponse struct {
	State form.State `json:"state"`
	View  form.View  `json:"view"`
}

// FormController owns the form state. Transitions are serialized, but the
// lock is never held while a quote request is in flight, so a second fetch
// can start while the first is pending.
type FormController struct {
	mu      sync.Mutex
	state   form.State
	fetcher QuoteFetcher
	apiKey  KeyResolver
	decoder *schema.Decoder
}

func NewFormController(fetcher QuoteFetcher, apiKey KeyResolver) *FormController {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &FormController{
		fetcher: fetcher,
		apiKey:  apiKey,
		decoder: decoder,
	}
}

func (c *FormController) Dispatch(a form.Action) form.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = form.Reduce(c.state, a)
	return c.state
}

func (c *FormController) State() form.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GET /
func (c *FormController) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderForm(w, c.State().View()); err != nil {
		log.Errorf("Index: failed to render form: %v", err)
	}
}

// GET /state
func (c *FormController) GetState(w http.ResponseWriter, r *http.Request) {
	writeState(w, c.State())
}

// POST /ticker
func (c *FormController) SetTicker(w http.ResponseWriter, r *http.Request) {
	input, ok := c.decodeInput(w, r)
	if !ok {
		return
	}
	c.respond(w, r, c.Dispatch(form.TickerChanged{Text: input.Ticker}))
}

// POST /delta
func (c *FormController) SetDelta(w http.ResponseWriter, r *http.Request) {
	input, ok := c.decodeInput(w, r)
	if !ok {
		return
	}

	delta, err := form.ParseDelta(input.Delta)
	if err != nil {
		log.Warnf("SetDelta: %v", err)
		c.respond(w, r, c.State())
		return
	}

	c.respond(w, r, c.Dispatch(form.DeltaChanged{Value: delta}))
}

// POST /quote - fields posted alongside the click are applied first, then
// exactly one quote request is made for the resulting ticker.
func (c *FormController) FetchQuote(w http.ResponseWriter, r *http.Request) {
	input, ok := c.decodeInput(w, r)
	if !ok {
		return
	}

	if r.PostForm.Has("ticker") {
		c.Dispatch(form.TickerChanged{Text: input.Ticker})
	}
	if r.PostForm.Has("delta") {
		if delta, err := form.ParseDelta(input.Delta); err == nil {
			c.Dispatch(form.DeltaChanged{Value: delta})
		}
	}

	c.respond(w, r, c.Fetch(context.WithoutCancel(r.Context())))
}

// Fetch runs one quote request for the current ticker and settles the form
// with its outcome.
func (c *FormController) Fetch(ctx context.Context) form.State {
	ticker := c.Dispatch(form.FetchStarted{}).Ticker

	logger := log.WithFields(log.Fields{
		"request_id": uuid.NewString(),
		"ticker":     ticker,
	})
	logger.Info("fetching quote")

	ctx = config.SetAPIKey(ctx, c.apiKey(ctx))
	price, err := c.fetcher.FetchClosePrice(ctx, ticker)
	if err != nil {
		logger.Errorf("Fetch: %v", err)
	} else {
		logger.WithField("close_price", price).Info("quote fetched")
	}

	return c.Dispatch(quotes.Outcome(price, err))
}

func (c *FormController) decodeInput(w http.ResponseWriter, r *http.Request) (FormInput, bool) {
	var input FormInput

	if err := r.ParseForm(); err != nil {
		log.Errorf("decodeInput: failed to parse form: %v", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return input, false
	}

	if err := c.decoder.Decode(&input, r.PostForm); err != nil {
		log.Errorf("decodeInput: failed to decode form: %v", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return input, false
	}

	return input, true
}

func (c *FormController) respond(w http.ResponseWriter, r *http.Request, s form.State) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeState(w, s)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeState(w http.ResponseWriter, s form.State) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(StateResponse{State: s, View: s.View()}); err != nil {
		log.Errorf("writeState: failed to encode state: %v", err)
	}
}
