package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// entityNotFoundMarker is the message the Gemini API returns when the API key
// (or the project behind it) no longer exists.
const entityNotFoundMarker = "Requested entity was not found"

// ErrorKind classifies why a model-backed step failed.
type ErrorKind string

const (
	KindClient      ErrorKind = "client"         // Client could not be constructed (e.g. no key)
	KindTransport   ErrorKind = "transport"      // Network, quota or other API error
	KindKeyNotFound ErrorKind = "key_not_found"  // API rejected the key as a missing entity
	KindEmpty       ErrorKind = "empty_response" // No text in the response
	KindMalformed   ErrorKind = "malformed"      // Text is not valid JSON for the result type
	KindSchema      ErrorKind = "schema"         // Valid JSON that does not match the response schema
)

// CallError is returned by the internal model steps. Public operations map
// every kind to a fallback value.
type CallError struct {
	Kind ErrorKind
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a *CallError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	return ""
}

// isEntityNotFound reports whether err means the active API key is invalid.
// The structured API error is checked first; the raw message is only used
// when the transport did not return one.
func isEntityNotFound(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErrorIsNotFound(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrorIsNotFound(*apiErrPtr)
	}

	return strings.Contains(err.Error(), entityNotFoundMarker)
}

// apiErrorIsNotFound requires the marker message. A bare 404 also covers
// an unknown model name, which a new key would not fix.
func apiErrorIsNotFound(e genai.APIError) bool {
	if !strings.Contains(e.Message, entityNotFoundMarker) {
		return false
	}
	return e.Code == 0 || e.Code == http.StatusNotFound || e.Status == "NOT_FOUND"
}

// modelErrorKind maps an error returned by Model.GenerateJSON to a kind.
func modelErrorKind(err error) ErrorKind {
	if isEntityNotFound(err) {
		return KindKeyNotFound
	}
	return KindTransport
}
