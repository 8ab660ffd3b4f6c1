// Package integration shows how to route AI traffic through the
// cost-tracking proxy: setup progress, the bearer token, the proxy base URL
// and copy-paste snippets for common SDKs.
package integration

import (
	"fmt"
	"strings"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/format"
)

// placeholderToken stands in for the token in snippets when there is none.
const placeholderToken = "YOUR_TOKEN"

// Setup is the three-step onboarding progress.
type Setup struct {
	HasKeys  bool
	HasToken bool
}

// Complete reports whether the proxy is ready to use.
func (s Setup) Complete() bool {
	return s.HasKeys && s.HasToken
}

// Snippet is one code example.
type Snippet struct {
	Title    string
	Language string
	Code     string
}

// Endpoint is one proxied provider endpoint.
type Endpoint struct {
	Method string
	Path   string
	Label  string
}

// providerEndpoints lists the endpoints the proxy forwards, by provider.
var providerEndpoints = map[string][]Endpoint{
	"openai": {
		{"POST", "/proxy/openai/v1/chat/completions", "Chat completions"},
		{"POST", "/proxy/openai/v1/completions", "Completions"},
		{"POST", "/proxy/openai/v1/embeddings", "Embeddings"},
	},
	"anthropic": {
		{"POST", "/proxy/anthropic/v1/messages", "Messages"},
	},
}

// View is everything the integration page shows.
type View struct {
	Setup    Setup
	Keys     []apiclient.APIKey
	ProxyURL string

	// Token is the truncated bearer token; the full value is only sent on
	// explicit reveal.
	Token    string
	Snippets []Snippet
}

// newView derives the page from the key list and the session token.
func newView(keys []apiclient.APIKey, token, proxyURL string) View {
	v := View{
		Keys:     keys,
		ProxyURL: strings.TrimRight(proxyURL, "/"),
		Token:    format.TruncateToken(token),
	}
	for _, k := range keys {
		if k.IsActive {
			v.Setup.HasKeys = true
			break
		}
	}
	v.Setup.HasToken = token != ""

	shown := v.Token
	if shown == "" {
		shown = placeholderToken
	}
	v.Snippets = snippets(v.BaseURL(shown))
	return v
}

// BaseURL is the SDK base URL for token and the first connected provider.
func (v View) BaseURL(token string) string {
	return fmt.Sprintf("%s/v1/%s/%s/", v.ProxyURL, token, v.provider())
}

// provider is the provider shown in the code snippets: the first key's, else openai.
func (v View) provider() string {
	if len(v.Keys) > 0 && v.Keys[0].Provider != "" {
		return v.Keys[0].Provider
	}
	return "openai"
}

// Endpoints returns the proxied endpoints of every connected provider.
func (v View) Endpoints() map[string][]Endpoint {
	out := make(map[string][]Endpoint)
	for _, k := range v.Keys {
		if eps, ok := providerEndpoints[k.Provider]; ok {
			out[k.Provider] = eps
		}
	}
	return out
}

func snippets(baseURL string) []Snippet {
	return []Snippet{
		{
			Title:    "OpenAI SDK (JavaScript)",
			Language: "javascript",
			Code: `const openai = new OpenAI({
  apiKey: process.env.OPENAI_API_KEY,
  baseURL: "` + baseURL + `"
});

// That's it! Use normally:
const response = await openai.chat.completions.create({
  model: "gpt-3.5-turbo",
  messages: [{ role: "user", content: "Hello!" }]
});`,
		},
		{
			Title:    "OpenAI SDK (Python)",
			Language: "python",
			Code: `client = OpenAI(
    api_key=os.getenv("OPENAI_API_KEY"),
    base_url="` + baseURL + `"
)

# That's it! Use normally:
response = client.chat.completions.create(
    model="gpt-3.5-turbo",
    messages=[{"role": "user", "content": "Hello!"}]
)`,
		},
		{
			Title:    "LangChain",
			Language: "python",
			Code: `llm = ChatOpenAI(
    openai_api_key=os.getenv("OPENAI_API_KEY"),
    base_url="` + baseURL + `"
)

# Works with any LangChain chain!
response = llm.invoke("Hello, world!")`,
		},
		{
			Title:    "cURL",
			Language: "shell",
			Code: `curl -X POST "` + baseURL + `chat/completions" \
  -H "Content-Type: application/json" \
  -d '{
    "model": "gpt-3.5-turbo",
    "messages": [{"role": "user", "content": "Hello!"}],
    "max_tokens": 50
  }'`,
		},
	}
}
