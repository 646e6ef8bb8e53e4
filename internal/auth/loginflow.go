package auth

import (
	"collsync/internal/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type FlowState string

const (
	FlowRequested FlowState = "REQUESTED"
	FlowPending   FlowState = "PENDING"
	FlowSucceeded FlowState = "SUCCEEDED"
	FlowTimedOut  FlowState = "TIMED_OUT"
	FlowDenied    FlowState = "DENIED"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxPolls     = 150
)

// LoginFlow drives a browser-redirect credential exchange: the server
// hands out a login URL for the user plus a poll endpoint, and polling
// eventually yields a username/app-password pair or a terminal failure.
// The sync engine never sees intermediate states, only the result.
type LoginFlow struct {
	baseURL      string
	client       *http.Client
	PollInterval time.Duration
	MaxPolls     int
}

type FlowSession struct {
	LoginURL     string
	pollEndpoint string
	pollToken    string
	State        FlowState
}

type flowStartResponse struct {
	Poll struct {
		Token    string `json:"token"`
		Endpoint string `json:"endpoint"`
	} `json:"poll"`
	Login string `json:"login"`
}

type flowPollResponse struct {
	Server      string `json:"server"`
	LoginName   string `json:"loginName"`
	AppPassword string `json:"appPassword"`
}

func NewLoginFlow(baseURL string) *LoginFlow {
	return &LoginFlow{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 30 * time.Second},
		PollInterval: defaultPollInterval,
		MaxPolls:     defaultMaxPolls,
	}
}

// Start requests a new login flow from the server. The returned session
// carries the URL the user must open in a browser.
func (f *LoginFlow) Start(ctx context.Context) (*FlowSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/index.php/login/v2", nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to start login flow: %w", err)
	}

	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login flow rejected with status %d", resp.StatusCode)
	}

	var start flowStartResponse
	if err := json.NewDecoder(resp.Body).Decode(&start); err != nil {
		return nil, fmt.Errorf("failed to parse login flow response: %w", err)
	}

	logger.Log.Debug("login flow started",
		zap.String("endpoint", start.Poll.Endpoint))

	return &FlowSession{
		LoginURL:     start.Login,
		pollEndpoint: start.Poll.Endpoint,
		pollToken:    start.Poll.Token,
		State:        FlowRequested,
	}, nil
}

// Poll waits for the user to finish the browser login, polling the
// server a bounded number of times. It returns the resolved credentials
// or a terminal failure; the session state reflects the outcome.
func (f *LoginFlow) Poll(ctx context.Context, session *FlowSession) (Credentials, error) {
	session.State = FlowPending

	for i := 0; i < f.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			session.State = FlowTimedOut
			return Credentials{}, ctx.Err()
		case <-time.After(f.PollInterval):
		}

		creds, done, err := f.pollOnce(ctx, session)
		if err != nil {
			if ctx.Err() != nil {
				session.State = FlowTimedOut
				return Credentials{}, ctx.Err()
			}

			session.State = FlowDenied
			return Credentials{}, err
		}

		if done {
			session.State = FlowSucceeded
			return creds, nil
		}
	}

	session.State = FlowTimedOut
	return Credentials{}, fmt.Errorf("login flow timed out after %d polls", f.MaxPolls)
}

func (f *LoginFlow) pollOnce(ctx context.Context, session *FlowSession) (Credentials, bool, error) {
	form := url.Values{"token": {session.pollToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.pollEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Credentials{}, false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("failed to poll login flow: %w", err)
	}

	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Login not completed yet.
		return Credentials{}, false, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Credentials{}, false, fmt.Errorf("login flow denied with status %d", resp.StatusCode)

	case resp.StatusCode != http.StatusOK:
		return Credentials{}, false, fmt.Errorf("login flow poll failed with status %d", resp.StatusCode)
	}

	var poll flowPollResponse
	if err := json.NewDecoder(resp.Body).Decode(&poll); err != nil {
		return Credentials{}, false, fmt.Errorf("failed to parse poll response: %w", err)
	}

	return Credentials{Username: poll.LoginName, Password: poll.AppPassword}, true, nil
}
