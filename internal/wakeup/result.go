package wakeup

import (
	"encoding/json"
)

// Kind describes the shape of a successful ping response body.
type Kind string

const (
	// KindEmpty means the endpoint answered with an empty body.
	KindEmpty Kind = "empty"
	// KindJSON means the body was valid JSON and Value holds the decoded value.
	KindJSON Kind = "json"
	// KindText means the body was not JSON and Value holds the raw text.
	KindText Kind = "text"
)

// Result is the parsed body of a successful ping. It only exists on success.
// Bodies longer than MaxBodyBytes are not decoded: they come back as text
// holding the first MaxBodyBytes bytes, with Truncated set.
type Result struct {
	Kind      Kind   `json:"kind"`
	Value     any    `json:"value,omitempty"`
	Raw       string `json:"-"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Present reports whether the endpoint returned a body at all.
func (r Result) Present() bool {
	return r.Kind != "" && r.Kind != KindEmpty
}

// decodeResult interprets a response body: empty stays absent, JSON is
// decoded, anything else is returned as raw text.
func decodeResult(body []byte) Result {
	if len(body) == 0 {
		return Result{Kind: KindEmpty}
	}
	if len(body) > MaxBodyBytes {
		text := string(body[:MaxBodyBytes])
		return Result{Kind: KindText, Value: text, Raw: text, Truncated: true}
	}
	text := string(body)

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return Result{Kind: KindText, Value: text, Raw: text}
	}
	return Result{Kind: KindJSON, Value: value, Raw: text}
}
