package genai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// GenerateReply must never return an empty reply, whatever the model does.
// An unconfigured client and a failing API both yield the fallback.
func TestProperty_GenerateReplyNeverEmpty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	unconfigured := NewClient()

	properties.Property("unconfigured_client_falls_back", prop.ForAll(
		func(subject, body string) bool {
			reply := unconfigured.GenerateReply(subject, body, "")
			return reply == fallbackReply
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestGenerateReply_FallbackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient()
	client.ConfigureWithBaseURL("gemini", "test-key", "test-model", server.URL)

	reply := client.GenerateReply("Hello", "Please advise.", "")
	assert.Equal(t, fallbackReply, reply)
}

func TestGenerateReply_GeminiSuccessGetsSignature(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "generateContent")

		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}

		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Parts: []geminiPart{{Text: "Thanks for your note. I will look into it."}}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient()
	client.ConfigureWithBaseURL("gemini", "test-key", "test-model", server.URL)

	reply := client.GenerateReply("Invoice", "Where is my invoice?", "")

	// The fixed prompt carries subject and body
	assert.Contains(t, gotPrompt, `"Invoice"`)
	assert.Contains(t, gotPrompt, "Where is my invoice?")
	assert.Contains(t, gotPrompt, "Reply to it professionally")

	// Output without a sign-off gets the signature appended
	assert.True(t, strings.HasSuffix(reply, signatureBlock))
}

func TestGenerateReply_ExistingSignOffIsKept(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Parts: []geminiPart{{Text: "All set on our side.\n\nKind regards,\nFaizan"}}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient()
	client.ConfigureWithBaseURL("gemini", "test-key", "test-model", server.URL)

	reply := client.GenerateReply("Status", "Any update?", "")
	assert.Equal(t, 1, strings.Count(strings.ToLower(reply), "regards"))
}

func TestGenerateReply_CustomPromptIsUsedVerbatim(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Parts: []geminiPart{{Text: "Declined politely. Best regards, Faizan"}}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient()
	client.ConfigureWithBaseURL("gemini", "test-key", "test-model", server.URL)

	custom := "Politely decline this request."
	client.GenerateReply("Offer", "Buy now!", custom)
	assert.Equal(t, custom, gotPrompt)
}

func TestGenerateReply_OpenAIStyleEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := ChatResponse{}
		resp.Choices = []struct {
			Message ChatMessage `json:"message"`
		}{
			{Message: ChatMessage{Role: "assistant", Content: "Happy to help.\n\nBest regards,\nFaizan"}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient()
	client.ConfigureWithBaseURL("openai", "test-key", "gpt-test", server.URL)

	reply := client.GenerateReply("Help", "Can you help?", "")
	assert.Contains(t, reply, "Happy to help.")
}

func TestLongBodyIsTruncatedInPrompt(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Parts: []geminiPart{{Text: "Noted. Best regards, Faizan"}}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient()
	client.ConfigureWithBaseURL("gemini", "test-key", "test-model", server.URL)

	longBody := strings.Repeat("a", maxPromptBody*2)
	client.GenerateReply("Subject", longBody, "")
	assert.Less(t, len(gotPrompt), maxPromptBody+300)
}
