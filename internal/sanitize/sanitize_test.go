package sanitize

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestHTML_StripsActiveContent(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string // substrings that must survive
		gone  []string // substrings that must not survive
	}{
		{
			name:  "script block",
			input: `<p>Hello</p><script>alert("x")</script>`,
			want:  []string{"<p>Hello</p>"},
			gone:  []string{"script", "alert"},
		},
		{
			name:  "event handler",
			input: `<div onclick="steal()">Click me</div>`,
			want:  []string{"Click me"},
			gone:  []string{"onclick", "steal"},
		},
		{
			name:  "style block",
			input: `<style>body{display:none}</style><b>Bold</b>`,
			want:  []string{"<b>Bold</b>"},
			gone:  []string{"display:none"},
		},
		{
			name:  "iframe",
			input: `<iframe src="https://evil.example"></iframe><p>Text</p>`,
			want:  []string{"<p>Text</p>"},
			gone:  []string{"iframe", "evil.example"},
		},
		{
			name:  "form",
			input: `<form action="/phish"><input name="pw"></form><span>ok</span>`,
			want:  []string{"<span>ok</span>"},
			gone:  []string{"form", "input"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := HTML(tc.input)
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
			for _, g := range tc.gone {
				assert.NotContains(t, out, g)
			}
		})
	}
}

func TestHTML_KeepsFormattingAndLinks(t *testing.T) {
	input := `<h2>Update</h2><ul><li>One</li><li>Two</li></ul><a href="https://example.com">more</a>`
	out := HTML(input)

	assert.Contains(t, out, "<h2>Update</h2>")
	assert.Contains(t, out, "<li>One</li>")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `rel="nofollow"`)
}

func TestText_FlattensToPlainText(t *testing.T) {
	input := "<p>Hello&nbsp;there</p>\n\n\n\n<p>Second   paragraph</p>"
	out := Text(input)

	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "&nbsp;")
	assert.Contains(t, out, "Hello there")
	assert.NotContains(t, out, "\n\n\n")
}

// Sanitizing is idempotent and the output never contains active content
// markers, whatever the input.
func TestProperty_SanitizedOutputIsStable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("html_sanitize_is_idempotent", prop.ForAll(
		func(s string) bool {
			once := HTML(s)
			twice := HTML(once)
			return once == twice
		},
		gen.AnyString(),
	))

	properties.Property("output_has_no_script_tags", prop.ForAll(
		func(prefix, suffix string) bool {
			input := prefix + `<script>alert(1)</script>` + suffix
			return !strings.Contains(strings.ToLower(HTML(input)), "<script")
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
