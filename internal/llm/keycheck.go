package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const geminiAPIBaseURL = "https://generativelanguage.googleapis.com"

// KeyValidator checks Gemini API keys against the models list endpoint,
// which is lightweight and requires a valid key.
type KeyValidator struct {
	http *resty.Client
}

// NewKeyValidator creates a validator. An empty baseURL uses the public API.
func NewKeyValidator(baseURL string) *KeyValidator {
	if baseURL == "" {
		baseURL = geminiAPIBaseURL
	}
	return &KeyValidator{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
	}
}

// Validate returns nil if the key is accepted by the API.
func (v *KeyValidator) Validate(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("API key is required")
	}

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	res, err := v.http.R().
		SetContext(ctx).
		SetQueryParam("key", key).
		SetError(&apiErr).
		Get("/v1beta/models")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("connection timed out - check your internet")
		}
		return errors.New("connection failed - check your internet")
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		if apiErr.Error.Message != "" {
			return errors.New(apiErr.Error.Message)
		}
		return fmt.Errorf("API key rejected (HTTP %d)", res.StatusCode())
	default:
		return fmt.Errorf("unexpected response (HTTP %d)", res.StatusCode())
	}
}
