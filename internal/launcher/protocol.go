// Package launcher implements the pop-launcher plugin protocol: one JSON
// value per line, requests on stdin and responses on stdout.
package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequestKind identifies an inbound request.
type RequestKind string

// Request kinds sent by the launcher.
const (
	RequestSearch          RequestKind = "Search"
	RequestActivate        RequestKind = "Activate"
	RequestActivateContext RequestKind = "ActivateContext"
	RequestComplete        RequestKind = "Complete"
	RequestContext         RequestKind = "Context"
	RequestQuit            RequestKind = "Quit"
	RequestInterrupt       RequestKind = "Interrupt"
	RequestExit            RequestKind = "Exit"
)

// ErrMalformed is returned for lines that are not a known request.
var ErrMalformed = errors.New("malformed request")

// Request is one decoded inbound message.
type Request struct {
	Kind RequestKind
	// Query is the raw input for Search.
	Query string
	// ID is the result id for Activate, ActivateContext, Complete, Context and Quit.
	ID uint32
	// Context is the context option for ActivateContext.
	Context uint32
}

type activateContext struct {
	ID      uint32 `json:"id"`
	Context uint32 `json:"context"`
}

// UnmarshalJSON decodes both the bare-string unit requests ("Exit") and the
// single-key object requests ({"Search":"..."}).
func (r *Request) UnmarshalJSON(data []byte) error {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		switch RequestKind(unit) {
		case RequestExit, RequestInterrupt:
			*r = Request{Kind: RequestKind(unit)}
			return nil
		}
		return fmt.Errorf("%w: unknown request %q", ErrMalformed, unit)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err) //nolint:errorlint // only the sentinel is matched
	}
	if len(obj) != 1 {
		return fmt.Errorf("%w: expected exactly one key, got %d", ErrMalformed, len(obj))
	}

	for key, raw := range obj {
		req := Request{Kind: RequestKind(key)}
		var err error
		switch req.Kind {
		case RequestSearch:
			err = json.Unmarshal(raw, &req.Query)
		case RequestActivate, RequestComplete, RequestContext, RequestQuit:
			err = json.Unmarshal(raw, &req.ID)
		case RequestActivateContext:
			var ac activateContext
			err = json.Unmarshal(raw, &ac)
			req.ID, req.Context = ac.ID, ac.Context
		default:
			return fmt.Errorf("%w: unknown request %q", ErrMalformed, key)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err) //nolint:errorlint // only the sentinel is matched
		}
		*r = req
	}
	return nil
}

// ResponseKind identifies an outbound event.
type ResponseKind string

// Response kinds sent to the launcher.
const (
	ResponseAppend   ResponseKind = "Append"
	ResponseFinished ResponseKind = "Finished"
	ResponseClose    ResponseKind = "Close"
	ResponseFill     ResponseKind = "Fill"
)

// IconSource names an icon by theme name or mime type.
type IconSource struct {
	Name string `json:"Name,omitempty"`
	Mime string `json:"Mime,omitempty"`
}

// SearchResult is the payload of an Append event. Unset optional fields are
// encoded as null.
type SearchResult struct {
	ID          uint32      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Keywords    []string    `json:"keywords"`
	Icon        *IconSource `json:"icon"`
	Exec        *string     `json:"exec"`
	Window      *[2]uint32  `json:"window"`
}

// Response is one outbound event. Build it with Append, Finished, Close or Fill.
type Response struct {
	Kind   ResponseKind
	Result SearchResult
	Text   string
}

// Append announces one search result.
func Append(result SearchResult) Response {
	return Response{Kind: ResponseAppend, Result: result}
}

// Finished marks the end of a result list.
func Finished() Response {
	return Response{Kind: ResponseFinished}
}

// Close asks the launcher to close its window.
func Close() Response {
	return Response{Kind: ResponseClose}
}

// Fill replaces the launcher's input text.
func Fill(text string) Response {
	return Response{Kind: ResponseFill, Text: text}
}

// MarshalJSON encodes unit events as bare strings and payload events as
// single-key objects.
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResponseFinished, ResponseClose:
		return json.Marshal(string(r.Kind))
	case ResponseAppend:
		return json.Marshal(map[string]SearchResult{string(r.Kind): r.Result})
	case ResponseFill:
		return json.Marshal(map[string]string{string(r.Kind): r.Text})
	default:
		return nil, fmt.Errorf("unknown response kind %q", r.Kind)
	}
}
