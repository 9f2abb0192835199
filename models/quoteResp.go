package models

import "encoding/json"

// QuoteResponse is the quotes body keyed by symbol. Entries stay raw so a
// missing key can be told apart from an entry that does not match QuoteData.
type QuoteResponse map[string]json.RawMessage

// QuoteData holds the fields read from a single symbol entry. ClosePrice is
// a pointer so an absent field is distinguishable from a zero price.
type QuoteData struct {
	ClosePrice *float64 `json:"closePrice"`
}
