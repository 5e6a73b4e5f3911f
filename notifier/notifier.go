// Package notifier sends alert text to stdout and, when configured, to a
// Slack channel. Shaped after the single-endpoint HTTP+JSON request pattern
// this codebase already uses for outbound API calls, adapted from a GET
// gas-oracle lookup to a POST chat message.
package notifier

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rocket-pool/validator-watcher/log"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// Notifier prints every alert to stdout, and additionally posts it to Slack
// when a channel and token are configured. There is no corpus-provided
// Slack SDK, so the Web API call is made directly over net/http, the same
// way this codebase talks to any other single-endpoint JSON API.
type Notifier struct {
	channel string
	token   string
	http    *http.Client
	logger  *log.Logger
}

// New builds a Notifier. channel and token may both be empty, in which
// case alerts are only printed to stdout.
func New(channel, token string, logger *log.Logger) *Notifier {
	return &Notifier{
		channel: channel,
		token:   token,
		http:    &http.Client{},
		logger:  logger,
	}
}

type slackMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type slackMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Println prints text to stdout only. Used for the routine per-slot
// classification lines that never need to reach Slack.
func (n *Notifier) Println(text string) {
	fmt.Println(text)
}

// Alert prints text to stdout and, if Slack is configured, also posts it to
// the configured channel. A Slack failure is logged, not returned, so a
// notification delivery problem never aborts the slot's processing. Only a
// missed proposal by one of our own validators should call this; everything
// else is Println-only.
func (n *Notifier) Alert(text string) {
	fmt.Println(text)

	if n.channel == "" || n.token == "" {
		return
	}
	if err := n.postToSlack(text); err != nil {
		if n.logger != nil {
			n.logger.Warn("slack notification failed", log.Err(err))
		}
	}
}

func (n *Notifier) postToSlack(text string) error {
	return n.postToSlackTo(slackPostMessageURL, text)
}

// postToSlackTo issues the chat.postMessage request against url, split out
// from postToSlack so tests can point it at an httptest server.
func (n *Notifier) postToSlackTo(url, text string) error {
	reqBody, err := json.Marshal(slackMessageRequest{Channel: n.channel, Text: text})
	if err != nil {
		return fmt.Errorf("notifier: encode slack message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("notifier: build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: slack request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notifier: read slack response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notifier: slack request failed with code %d", resp.StatusCode)
	}

	var parsed slackMessageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("notifier: decode slack response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("notifier: slack rejected message: %s", parsed.Error)
	}
	return nil
}
