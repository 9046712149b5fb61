// Package mailapi implements the subset of the Gmail REST API the reply
// pipeline needs: listing and fetching inbox messages, and creating, verifying
// and sending drafts.
package mailapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	// ErrNotConfigured indicates the mail client has no credentials
	ErrNotConfigured = errors.New("mail client not configured")
	// ErrAPICallFailed indicates the provider API call failed
	ErrAPICallFailed = errors.New("mail API call failed")
	// ErrNotFound indicates the requested object does not exist at the provider
	ErrNotFound = errors.New("not found at provider")
	// ErrInvalidResponse indicates an unparseable provider response
	ErrInvalidResponse = errors.New("invalid mail API response")
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

// Provider is the mail-provider surface consumed by the services layer
type Provider interface {
	ListMessages(query string, maxResults int) ([]MessageRef, error)
	GetMessage(id string) (*Message, error)
	CreateDraft(to, subject, body string) (string, error)
	GetDraft(draftID string) (*Draft, error)
	SendDraft(draftID string) error
	DeleteDraft(draftID string) error
}

// Client talks to the Gmail REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// authorizedUserFile mirrors the token file written by the OAuth consent flow
type authorizedUserFile struct {
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	RefreshToken string    `json:"refresh_token"`
	AccessToken  string    `json:"token"`
	Expiry       time.Time `json:"expiry"`
}

// NewClient creates a mail client from an authorized-user token file.
// The consent flow that produces the file is an external concern.
func NewClient(credentialsPath string) (*Client, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	var authorized authorizedUserFile
	if err := json.Unmarshal(data, &authorized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if authorized.RefreshToken == "" && authorized.AccessToken == "" {
		return nil, fmt.Errorf("%w: token file has no tokens", ErrNotConfigured)
	}

	conf := &oauth2.Config{
		ClientID:     authorized.ClientID,
		ClientSecret: authorized.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/gmail.modify",
			"https://www.googleapis.com/auth/gmail.send",
		},
	}
	token := &oauth2.Token{
		AccessToken:  authorized.AccessToken,
		RefreshToken: authorized.RefreshToken,
		Expiry:       authorized.Expiry,
		TokenType:    "Bearer",
	}

	httpClient := oauth2.NewClient(context.Background(), conf.TokenSource(context.Background(), token))
	httpClient.Timeout = 30 * time.Second

	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}, nil
}

// NewClientWithHTTP creates a client over a caller-supplied HTTP client and
// base URL. Used by tests and by deployments behind an API gateway.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// ListMessages returns refs of inbox messages matching the query
func (c *Client) ListMessages(query string, maxResults int) ([]MessageRef, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	endpoint := fmt.Sprintf("%s/messages?q=%s&maxResults=%d",
		c.baseURL, url.QueryEscape(query), maxResults)

	var listResp struct {
		Messages []MessageRef `json:"messages"`
	}
	if err := c.doJSON(http.MethodGet, endpoint, nil, &listResp); err != nil {
		return nil, err
	}
	return listResp.Messages, nil
}

// GetMessage fetches the full message including the MIME part tree
func (c *Client) GetMessage(id string) (*Message, error) {
	endpoint := fmt.Sprintf("%s/messages/%s?format=full", c.baseURL, url.PathEscape(id))

	var msg Message
	if err := c.doJSON(http.MethodGet, endpoint, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateDraft creates an unsent draft and returns its provider identifier
func (c *Client) CreateDraft(to, subject, body string) (string, error) {
	raw, err := buildRawMessage(to, subject, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	payload := map[string]interface{}{
		"message": map[string]string{"raw": raw},
	}

	var draft Draft
	if err := c.doJSON(http.MethodPost, c.baseURL+"/drafts", payload, &draft); err != nil {
		return "", err
	}
	if draft.ID == "" {
		return "", ErrInvalidResponse
	}
	return draft.ID, nil
}

// GetDraft fetches a draft; returns ErrNotFound if it no longer exists
func (c *Client) GetDraft(draftID string) (*Draft, error) {
	endpoint := fmt.Sprintf("%s/drafts/%s", c.baseURL, url.PathEscape(draftID))

	var draft Draft
	if err := c.doJSON(http.MethodGet, endpoint, nil, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// SendDraft sends an existing draft
func (c *Client) SendDraft(draftID string) error {
	payload := map[string]string{"id": draftID}
	return c.doJSON(http.MethodPost, c.baseURL+"/drafts/send", payload, nil)
}

// DeleteDraft removes a draft at the provider
func (c *Client) DeleteDraft(draftID string) error {
	endpoint := fmt.Sprintf("%s/drafts/%s", c.baseURL, url.PathEscape(draftID))
	return c.doJSON(http.MethodDelete, endpoint, nil, nil)
}

// doJSON performs a request with an optional JSON body and decodes the
// response into out when non-nil
func (c *Client) doJSON(method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAPICallFailed, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrAPICallFailed, resp.StatusCode, truncate(string(respBody), 200))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	return nil
}

// buildRawMessage assembles the RFC822 draft payload and encodes it the way
// the provider expects (base64url, no padding)
func buildRawMessage(to, subject, body string) (string, error) {
	toAddrs, err := mail.ParseAddressList(to)
	if err != nil {
		// Bare addresses without display names still need to go through
		toAddrs = []*mail.Address{{Address: to}}
	}

	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("To", toAddrs)
	header.SetSubject(subject)

	writer, err := mail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(writer, body); err != nil {
		writer.Close()
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(buf.Bytes()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (" + strconv.Itoa(len(s)) + " bytes)"
}
