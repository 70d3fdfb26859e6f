package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPAuthorizer calls an external payment gateway over HTTP. Any transport
// problem, including the deadline firing, surfaces as ErrPaymentUnavailable;
// a decline only ever comes from a well-formed gateway response.
type HTTPAuthorizer struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func NewHTTPAuthorizer(baseURL string, timeout time.Duration) *HTTPAuthorizer {
	return &HTTPAuthorizer{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

type authorizeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
}

func (a *HTTPAuthorizer) Authorize(ctx context.Context, amountCents int64, method string) (Authorization, error) {
	if amountCents <= 0 {
		return Authorization{}, ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	body, err := json.Marshal(authorizeRequest{AmountCents: amountCents, Method: method})
	if err != nil {
		return Authorization{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/authorize", bytes.NewReader(body))
	if err != nil {
		return Authorization{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return Authorization{}, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Authorization{}, fmt.Errorf("%w: gateway returned %d", ErrPaymentUnavailable, resp.StatusCode)
	}

	var auth Authorization
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return Authorization{}, fmt.Errorf("%w: bad response: %v", ErrPaymentUnavailable, err)
	}
	if !auth.Approved {
		return auth, &DeclinedError{Reason: auth.DeclineReason}
	}
	return auth, nil
}
