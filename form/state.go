package form

import (
	"fmt"
	"strconv"
)

const (
	NoQuoteMessage     = "No quote found for the given ticker"
	FetchFailedMessage = "Failed to fetch stock price"
)

// State is the whole form. It is passed and returned by value; Reduce never
// mutates the State it is given.
type State struct {
	Ticker   string  `json:"ticker"`
	Delta    float64 `json:"delta"`
	Price    float64 `json:"price"`
	HasPrice bool    `json:"hasPrice"`
	Loading  bool    `json:"loading"`
	Error    string  `json:"error,omitempty"`
}

// View holds the strings the page renders for a State.
type View struct {
	Ticker      string `json:"ticker"`
	DeltaLabel  string `json:"deltaLabel"`
	DeltaRaw    string `json:"deltaRaw"`
	Error       string `json:"error,omitempty"`
	PriceLine   string `json:"priceLine,omitempty"`
	ButtonLabel string `json:"buttonLabel"`
	Disabled    bool   `json:"disabled"`
}

func (s State) View() View {
	v := View{
		Ticker:      s.Ticker,
		DeltaLabel:  fmt.Sprintf("%.2f", s.Delta),
		DeltaRaw:    strconv.FormatFloat(s.Delta, 'f', -1, 64),
		Error:       s.Error,
		ButtonLabel: "Get Stock Price",
		Disabled:    s.Loading,
	}

	if s.HasPrice {
		v.PriceLine = fmt.Sprintf("Stock Price: $%.2f", s.Price)
	}

	if s.Loading {
		v.ButtonLabel = "Loading..."
	}

	return v
}
