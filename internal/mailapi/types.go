package mailapi

import (
	"encoding/base64"
	"strings"
	"time"
)

// MessageRef identifies a message returned by a list call
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// Header is a single RFC822 header of a fetched message
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Body holds the transport-encoded content of a message part
type Body struct {
	Size int    `json:"size"`
	Data string `json:"data"` // base64url encoded
}

// Part is one node of the nested MIME part tree
type Part struct {
	PartID   string   `json:"partId"`
	MimeType string   `json:"mimeType"`
	Filename string   `json:"filename"`
	Headers  []Header `json:"headers"`
	Body     Body     `json:"body"`
	Parts    []Part   `json:"parts"`
}

// Message is a full message as returned by the provider
type Message struct {
	ID           string `json:"id"`
	ThreadID     string `json:"threadId"`
	Snippet      string `json:"snippet"`
	InternalDate string `json:"internalDate"` // epoch millis as string
	Payload      Part   `json:"payload"`
}

// Draft is a provider-side unsent message object
type Draft struct {
	ID      string `json:"id"`
	Message struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"message"`
}

// HeaderValue returns the value of the named header, case-insensitively
func (m *Message) HeaderValue(name string) string {
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Date parses the message timestamp, preferring internalDate over the Date
// header since some senders ship malformed Date values.
func (m *Message) Date() time.Time {
	if ms, ok := parseMillis(m.InternalDate); ok {
		return ms
	}
	if t, err := time.Parse(time.RFC1123Z, m.HeaderValue("Date")); err == nil {
		return t
	}
	return time.Now().UTC()
}

func parseMillis(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	var ms int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
		ms = ms*10 + int64(r-'0')
	}
	return time.UnixMilli(ms).UTC(), true
}

// ExtractBody walks the MIME part tree and returns the decoded body, preferring
// text/html over text/plain. The tree is searched depth-first; the first part
// of the preferred type wins.
func ExtractBody(payload *Part) (body string, isHTML bool, err error) {
	if html := findPart(payload, "text/html"); html != "" {
		decoded, derr := decodeBody(html)
		if derr != nil {
			return "", false, derr
		}
		return decoded, true, nil
	}
	if plain := findPart(payload, "text/plain"); plain != "" {
		decoded, derr := decodeBody(plain)
		if derr != nil {
			return "", false, derr
		}
		return decoded, false, nil
	}
	// Single-part messages carry the data directly on the payload body
	if payload.Body.Data != "" {
		decoded, derr := decodeBody(payload.Body.Data)
		if derr != nil {
			return "", false, derr
		}
		return decoded, strings.EqualFold(payload.MimeType, "text/html"), nil
	}
	return "", false, nil
}

// findPart returns the raw base64url data of the first part matching mimeType
func findPart(p *Part, mimeType string) string {
	if strings.EqualFold(p.MimeType, mimeType) && p.Body.Data != "" {
		return p.Body.Data
	}
	for i := range p.Parts {
		if data := findPart(&p.Parts[i], mimeType); data != "" {
			return data
		}
	}
	return ""
}

// decodeBody decodes the provider's base64url transport encoding
func decodeBody(data string) (string, error) {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
