package facilityapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const detailKey = "detail"

// Error is a non-2xx answer from the remote API.
type Error struct {
	StatusCode int
	Body       []byte
}

func (e *Error) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("facility api: %d %s", e.StatusCode, detail)
	}

	return fmt.Sprintf("facility api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Detail returns the "detail" message of the body, if any.
func (e *Error) Detail() string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}

	raw, ok := body[detailKey]
	if !ok {
		return ""
	}

	return strings.Join(messages(raw), " ")
}

// FieldErrors returns the field-error map of the body. Values may be either
// a string or a list of strings on the wire; both are returned as lists.
// The "detail" key is not a field and is left out.
func (e *Error) FieldErrors() map[string][]string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return nil
	}

	fields := make(map[string][]string, len(body))

	for name, raw := range body {
		if name == detailKey {
			continue
		}

		if msgs := messages(raw); len(msgs) > 0 {
			fields[name] = msgs
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return fields
}

// StatusCode returns the status of an *Error in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func messages(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	return nil
}
