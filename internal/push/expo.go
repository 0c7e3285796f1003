// Package push delivers status-change notices to student devices through
// the Expo push gateway. The gateway accepts a JSON array of messages and
// answers with a ticket per message.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Message is a single push notification addressed to one device token.
type Message struct {
	To        string         `json:"to"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Sound     string         `json:"sound,omitempty"`
	Priority  string         `json:"priority,omitempty"`
	ChannelID string         `json:"channelId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type ticket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type gatewayResponse struct {
	Data []ticket `json:"data"`
}

// Client posts messages to the gateway.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a client for the given gateway URL.
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ValidToken reports whether the value looks like an Expo push token.
func ValidToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") && strings.HasSuffix(token, "]")
}

// Send delivers the messages in one batch. A gateway-level error ticket
// fails the whole call so the caller can log it.
func (c *Client) Send(ctx context.Context, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}

	var parsed gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	for _, t := range parsed.Data {
		if t.Status == "error" {
			return fmt.Errorf("push ticket error: %s", t.Message)
		}
	}
	return nil
}
