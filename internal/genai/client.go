// Package genai wraps the AI completion API used to draft email replies.
package genai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured indicates the AI client is not configured
	ErrNotConfigured = errors.New("AI client not configured")
	// ErrAPICallFailed indicates the AI API call failed
	ErrAPICallFailed = errors.New("AI API call failed")
	// ErrInvalidResponse indicates an invalid response from the AI API
	ErrInvalidResponse = errors.New("invalid AI API response")
)

// Provider represents an AI provider
type Provider string

const (
	// ProviderGemini represents the Google Gemini API
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI represents OpenAI API
	ProviderOpenAI Provider = "openai"
	// ProviderClaude represents Anthropic Claude API
	ProviderClaude Provider = "claude"
	// ProviderCustom represents a custom chat-completions endpoint
	ProviderCustom Provider = "custom"
)

// replyPromptTemplate is the fixed professional-reply prompt
const replyPromptTemplate = `You are an assistant. Here's an email with subject: %q and body: %q. Reply to it professionally.`

// fallbackReply is returned whenever generation fails. Generation failure must
// never block the reply pipeline.
const fallbackReply = `Hello,

Thank you for reaching out. I have received your email and will get back to you with a detailed response as soon as possible.

Best regards,
Faizan`

// signatureBlock is appended when the model output lacks a closing phrase
const signatureBlock = "\n\nBest regards,\nFaizan"

// closingPhrases are the known sign-offs that count as a signature
var closingPhrases = []string{
	"best regards", "kind regards", "warm regards", "regards,",
	"sincerely", "best wishes", "thank you,", "thanks,", "cheers,",
}

const maxPromptBody = 3000

// Client handles AI API communication for reply generation
type Client struct {
	provider   Provider
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	configured bool
}

// NewClient creates a new AI Client instance
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configure configures the AI client with provider settings
func (c *Client) Configure(provider, apiKey, model string) {
	c.ConfigureWithBaseURL(provider, apiKey, model, "")
}

// ConfigureWithBaseURL configures the AI client with a custom base URL
func (c *Client) ConfigureWithBaseURL(provider, apiKey, model, baseURL string) {
	c.provider = Provider(strings.ToLower(provider))
	c.apiKey = apiKey
	c.model = model
	c.configured = apiKey != ""

	if baseURL != "" {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
		return
	}

	switch c.provider {
	case ProviderGemini:
		c.baseURL = "https://generativelanguage.googleapis.com/v1beta"
		if c.model == "" {
			c.model = "gemini-1.5-flash"
		}
	case ProviderOpenAI:
		c.baseURL = "https://api.openai.com/v1"
		if c.model == "" {
			c.model = "gpt-3.5-turbo"
		}
	case ProviderClaude:
		c.baseURL = "https://api.anthropic.com/v1"
		if c.model == "" {
			c.model = "claude-3-haiku-20240307"
		}
	default:
		c.provider = ProviderGemini
		c.baseURL = "https://generativelanguage.googleapis.com/v1beta"
		if c.model == "" {
			c.model = "gemini-1.5-flash"
		}
	}
}

// IsConfigured returns whether the client is configured
func (c *Client) IsConfigured() bool {
	return c.configured && c.apiKey != ""
}

// GenerateReply builds a prompt from the fixed professional-reply template (or
// uses customPrompt verbatim) and returns the model's reply. On any failure it
// returns the deterministic fallback reply, never an error.
func (c *Client) GenerateReply(subject, body, customPrompt string) string {
	reply, err := c.generate(subject, body, customPrompt)
	if err != nil || reply == "" {
		return fallbackReply
	}
	return ensureSignature(reply)
}

// generate is the fallible path behind GenerateReply
func (c *Client) generate(subject, body, customPrompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	if len(body) > maxPromptBody {
		body = body[:maxPromptBody]
	}

	prompt := customPrompt
	if prompt == "" {
		prompt = fmt.Sprintf(replyPromptTemplate, subject, body)
	}

	var (
		reply string
		err   error
	)
	if c.provider == ProviderGemini {
		reply, err = c.sendGeminiRequest(prompt)
	} else {
		reply, err = c.sendChatRequest(prompt)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// ensureSignature appends the signature block when the reply has no known
// closing phrase
func ensureSignature(reply string) string {
	lowered := strings.ToLower(reply)
	for _, phrase := range closingPhrases {
		if strings.Contains(lowered, phrase) {
			return reply
		}
	}
	return reply + signatureBlock
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// sendChatRequest sends a chat completion request to an OpenAI-compatible API
func (c *Client) sendChatRequest(prompt string) (string, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	switch c.provider {
	case ProviderClaude:
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	default:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrAPICallFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrInvalidResponse
	}
	return chatResp.Choices[0].Message.Content, nil
}

// geminiPart is a single text part of a Gemini content block
type geminiPart struct {
	Text string `json:"text"`
}

// geminiContent is one content block of a generateContent request
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// geminiRequest mirrors the generateContent request shape
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiResponse mirrors the generateContent response shape
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// sendGeminiRequest sends a generateContent request to the Gemini API
func (c *Client) sendGeminiRequest(prompt string) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequest("POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrAPICallFailed, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", ErrInvalidResponse
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPICallFailed, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
