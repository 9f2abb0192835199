package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Action interface {
	isAction()
}

type TickerChanged struct{ Text string }

type DeltaChanged struct{ Value float64 }

type FetchStarted struct{}

type FetchSucceeded struct{ Price float64 }

type FetchNoQuote struct{}

type FetchFailed struct{}

func (TickerChanged) isAction() {}
func (DeltaChanged) isAction() {}
func (FetchStarted) isAction() {}
func (FetchSucceeded) isAction() {}
func (FetchNoQuote) isAction() {}
func (FetchFailed) isAction() {}

// Reduce returns the state that follows s once a is applied. Overlapping
// fetches are not sequenced: whichever settles last decides what is shown,
// and the first one to settle clears Loading.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case TickerChanged:
		s.Ticker = strings.ToUpper(a.Text)
	case DeltaChanged:
		if !math.IsNaN(a.Value) {
			s.Delta = ClampDelta(a.Value)
		}
	case FetchStarted:
		s.Loading = true
		s.Error = ""
	case FetchSucceeded:
		s.Loading = false
		s.Error = ""
		s.Price = a.Price
		s.HasPrice = true
	case FetchNoQuote:
		s = settleWithError(s, NoQuoteMessage)
	case FetchFailed:
		s = settleWithError(s, FetchFailedMessage)
	}
	return s
}

func settleWithError(s State, msg string) State {
	s.Loading = false
	s.Error = msg
	s.Price = 0
	s.HasPrice = false
	return s
}

// ClampDelta pins v into [0, 1] and rounds it to the slider's 0.01 step.
func ClampDelta(v float64) float64 {
	v = math.Max(0, math.Min(1, v))
	return math.Round(v*100) / 100
}

func ParseDelta(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("ParseDelta: invalid delta %q: %w", raw, err)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("ParseDelta: invalid delta %q", raw)
	}
	return v, nil
}
