// Package config holds the data model the proxy core reads configuration
// through, plus the in-memory snapshot the Proxy Engine swaps atomically on
// reload.
package config

// ContentType classifies a request for rule selection (spec §3, §4.4).
type ContentType string

const (
	ContentDefault            ContentType = "default"
	ContentBackground         ContentType = "background"
	ContentThinking           ContentType = "thinking"
	ContentLongContext        ContentType = "long-context"
	ContentImageUnderstanding ContentType = "image-understanding"
)

// SourceType identifies the wire dialect an upstream APIService speaks.
type SourceType string

const (
	SourceClaudeChat   SourceType = "claude-chat"
	SourceClaudeCode   SourceType = "claude-code"
	SourceOpenAIChat   SourceType = "openai-chat"
	SourceOpenAICode   SourceType = "openai-code"
	SourceResponses    SourceType = "openai-responses"
	SourceDeepSeekChat SourceType = "deepseek-chat"
)

// TargetType identifies the client surface a Route is scoped to.
type TargetType string

const (
	TargetClaudeCode TargetType = "claude-code"
	TargetCodex      TargetType = "codex"
)

// DefaultTimeoutMS is applied to an APIService that does not set Timeout.
const DefaultTimeoutMS = 30000

// Vendor groups upstream services. Externally managed; the core only reads
// it for log enrichment.
type Vendor struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// APIService is a concrete upstream endpoint.
type APIService struct {
	ID              string     `yaml:"id" json:"id"`
	VendorID        string     `yaml:"vendorId" json:"vendorId"`
	Name            string     `yaml:"name" json:"name"`
	APIURL          string     `yaml:"apiUrl" json:"apiUrl"`
	APIKey          string     `yaml:"apiKey" json:"apiKey"`
	TimeoutMS       int        `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	SourceType      SourceType `yaml:"sourceType" json:"sourceType"`
	SupportedModels []string   `yaml:"supportedModels,omitempty" json:"supportedModels,omitempty"`
}

// Timeout returns the configured timeout, falling back to the spec default.
func (s APIService) Timeout() int {
	if s.TimeoutMS <= 0 {
		return DefaultTimeoutMS
	}
	return s.TimeoutMS
}

// Route is a selection container scoped to a client surface.
type Route struct {
	ID         string     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	TargetType TargetType `yaml:"targetType" json:"targetType"`
	IsActive   bool       `yaml:"isActive" json:"isActive"`
}

// Rule maps a (route, contentType) pair to a target service and optional
// model override.
type Rule struct {
	ID              string      `yaml:"id" json:"id"`
	RouteID         string      `yaml:"routeId" json:"routeId"`
	ContentType     ContentType `yaml:"contentType" json:"contentType"`
	TargetServiceID string      `yaml:"targetServiceId" json:"targetServiceId"`
	TargetModel     string      `yaml:"targetModel,omitempty" json:"targetModel,omitempty"`
}

// AppConfig holds process-wide configuration.
type AppConfig struct {
	EnableLogging    bool   `yaml:"enableLogging" json:"enableLogging"`
	LogRetentionDays int    `yaml:"logRetentionDays,omitempty" json:"logRetentionDays,omitempty"`
	MaxLogSize       int    `yaml:"maxLogSize,omitempty" json:"maxLogSize,omitempty"`
	APIKey           string `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`
}

// TokenUsage is the token accounting attached to a RequestLog.
type TokenUsage struct {
	InputTokens          int  `json:"inputTokens"`
	OutputTokens         int  `json:"outputTokens"`
	TotalTokens          *int `json:"totalTokens,omitempty"`
	CacheReadInputTokens *int `json:"cacheReadInputTokens,omitempty"`
}
