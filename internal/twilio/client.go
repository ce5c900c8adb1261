package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rollcall/internal/notify"
)

const defaultBaseURL = "https://api.twilio.com"

// Client calls the Twilio Messages REST API.
type Client struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTP       *http.Client
	// Skip short-circuits delivery with a stub receipt for local development.
	Skip bool
}

// New creates a client.
func New(accountSID, authToken, from string, skip bool) *Client {
	return &Client{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    defaultBaseURL,
		Skip:       skip,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Send posts one message and returns the provider SID.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	if c.Skip {
		return "SMskip", nil
	}
	if to == "" {
		return "", fmt.Errorf("destination number required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.BaseURL, c.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(resp.Body)
		detail := string(raw)
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
			detail = fmt.Sprintf("%s (code %d)", apiErr.Message, apiErr.Code)
		}
		return "", &notify.SinkError{Status: resp.Status, Detail: detail}
	}

	var out struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.SID == "" {
		return "", fmt.Errorf("twilio response missing sid")
	}
	return out.SID, nil
}
