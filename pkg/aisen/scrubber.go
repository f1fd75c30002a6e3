// scrubber.go implements fail-closed sensitive data redaction for events.

package aisen

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ScrubberConfig controls scrubbing behavior.
type ScrubberConfig struct {
	// SensitivePatterns contains additional regex patterns for sensitive tag, extra and data keys.
	SensitivePatterns []string

	// MaxMessageSize is the maximum length for messages and exception values (default: 4096).
	MaxMessageSize int

	// MaxExtraSize is the maximum serialized size of a single extra value (default: 16384).
	MaxExtraSize int

	// MaxValueSize is the maximum length of a tag or breadcrumb data value (default: 1024).
	MaxValueSize int

	// ScrubMessages enables scrubbing of messages for secrets/PII (default: true).
	ScrubMessages bool

	// FailClosed enables fail-closed behavior: on any scrub error, fully redact (default: true).
	FailClosed bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxMessageSize: 4096,
		MaxExtraSize:   16384,
		MaxValueSize:   1024,
		ScrubMessages:  true,
		FailClosed:     true,
	}
}

// Compiled regex patterns for message scrubbing (compiled once at package init)
var messageScrubPatterns = []*regexp.Regexp{
	// API keys and tokens
	regexp.MustCompile(`(?i)(api[_-]?key|token)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)(authorization|bearer)[=:\s]+['"]?[\w\-\.]+['"]?[\s]+['"]?[\w\-\.]+['"]?`), // Authorization: Bearer <token>
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{20,}`),                                    // OpenAI-style keys (including sk-proj-)
	regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`),                                      // GitHub tokens
	regexp.MustCompile(`(?i)gho_[a-zA-Z0-9]{36}`),                                      // GitHub OAuth tokens
	regexp.MustCompile(`(?i)github_pat_[a-zA-Z0-9_]{22,}`),                             // GitHub PAT
	regexp.MustCompile(`(?i)xox[baprs]-[a-zA-Z0-9\-]{10,}`),                            // Slack tokens
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),     // JWT tokens
	regexp.MustCompile(`(?i)sentry_(key|secret)=[0-9a-f]+`),                            // Sentry auth header fields

	// Credentials
	regexp.MustCompile(`(?i)password[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)secret[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)passwd[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)credential[=:\s]+['"]?[^\s'"",]+['"]?`),

	// PII
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), // Email
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                               // SSN
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),          // Credit card
}

// Sensitive key patterns (case-insensitive substring match)
var sensitiveKeyPatterns = []string{
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"auth",
	"passwd",
}

// Path patterns to normalize in stack frames
var pathNormalizationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/home/[^/]+/`),
	regexp.MustCompile(`/Users/[^/]+/`),
	regexp.MustCompile(`C:\\Users\\[^\\]+\\`),
	regexp.MustCompile(`/tmp/[^/]+/`),
}

// Scrubber redacts sensitive data from events.
type Scrubber struct {
	cfg           ScrubberConfig
	extraPatterns []*regexp.Regexp
}

// NewScrubber creates a new scrubber with the given configuration.
// Invalid SensitivePatterns are ignored.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	s := &Scrubber{cfg: cfg}
	for _, p := range cfg.SensitivePatterns {
		if re, err := regexp.Compile("(?i)" + p); err == nil {
			s.extraPatterns = append(s.extraPatterns, re)
		}
	}
	return s
}

// ScrubEvent scrubs an event in place: message, exception values, stack frame
// paths, tags, extra, user data and breadcrumbs.
func (s *Scrubber) ScrubEvent(event *Event) {
	event.Message = s.ScrubMessage(event.Message)

	for i := range event.Exception {
		event.Exception[i].Value = s.ScrubMessage(event.Exception[i].Value)
		event.Exception[i].Stacktrace = s.ScrubStacktrace(event.Exception[i].Stacktrace)
	}

	event.Tags = s.ScrubTags(event.Tags)
	event.Extra = s.ScrubExtra(event.Extra)

	if event.User != nil {
		event.User.Data = s.ScrubTags(event.User.Data)
	}

	if len(event.Breadcrumbs) > 0 {
		crumbs := make([]Breadcrumb, len(event.Breadcrumbs))
		for i, crumb := range event.Breadcrumbs {
			crumb.Message = s.ScrubMessage(crumb.Message)
			crumb.Data = s.ScrubTags(crumb.Data)
			crumbs[i] = crumb
		}
		event.Breadcrumbs = crumbs
	}
}

// ScrubMessage scrubs sensitive patterns from a message.
func (s *Scrubber) ScrubMessage(msg string) string {
	if !s.cfg.ScrubMessages {
		return msg
	}

	// Truncate if too large first
	if len(msg) > s.cfg.MaxMessageSize {
		msg = truncateWithMarker(msg, s.cfg.MaxMessageSize)
	}

	// Apply all scrubbing patterns
	result := msg
	for _, pattern := range messageScrubPatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}

	return result
}

// ScrubTags redacts sensitive keys from a string map and truncates long values.
// The input map is not modified.
func (s *Scrubber) ScrubTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}

	result := make(map[string]string, len(tags))
	for key, value := range tags {
		if s.isSensitiveKey(key) {
			result[key] = "[REDACTED]"
			continue
		}
		if len(value) > s.cfg.MaxValueSize {
			value = truncateWithMarker(value, s.cfg.MaxValueSize)
		}
		result[key] = value
	}

	return result
}

// ScrubExtra redacts sensitive keys from extra values, recursing into nested
// structures through their JSON form. Values that cannot be encoded are
// redacted when FailClosed is set.
func (s *Scrubber) ScrubExtra(extra map[string]any) map[string]any {
	if extra == nil {
		return nil
	}

	result := make(map[string]any, len(extra))
	for key, value := range extra {
		if s.isSensitiveKey(key) {
			result[key] = "[REDACTED]"
			continue
		}

		switch v := value.(type) {
		case nil, bool, int, int64, float64:
			result[key] = v
		case string:
			result[key] = s.ScrubMessage(v)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				if s.cfg.FailClosed {
					result[key] = "[REDACTED:SCRUB_ERROR]"
				} else {
					result[key] = v
				}
				continue
			}
			scrubbed := s.ScrubJSON(string(encoded))
			var decoded any
			if err := json.Unmarshal([]byte(scrubbed), &decoded); err != nil {
				// truncated or redacted JSON is kept as a string
				result[key] = scrubbed
				continue
			}
			result[key] = decoded
		}
	}

	return result
}

// ScrubStacktrace normalizes user-specific directories in frame paths.
func (s *Scrubber) ScrubStacktrace(trace *Stacktrace) *Stacktrace {
	if trace == nil {
		return nil
	}

	frames := make([]Frame, len(trace.Frames))
	for i, frame := range trace.Frames {
		for _, pattern := range pathNormalizationPatterns {
			frame.AbsPath = pattern.ReplaceAllString(frame.AbsPath, "/[PATH]/")
		}
		frames[i] = frame
	}
	return &Stacktrace{Frames: frames}
}

// isSensitiveKey checks if a key matches sensitive patterns.
func (s *Scrubber) isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	for _, re := range s.extraPatterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// truncateWithMarker truncates a string and adds a truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	marker := "...[TRUNCATED]"
	if maxLen <= len(marker) {
		return marker[:maxLen]
	}
	return s[:maxLen-len(marker)] + marker
}

// ScrubJSON recursively scrubs sensitive data from a JSON string.
// Returns scrubbed JSON or "[REDACTED:SCRUB_ERROR]" on any error (fail-closed).
func (s *Scrubber) ScrubJSON(jsonStr string) string {
	maxSize := s.cfg.MaxExtraSize
	if maxSize <= 0 {
		maxSize = 16384
	}

	// Parse JSON into generic structure
	var data interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		// Fail closed: invalid JSON gets fully redacted
		if s.cfg.FailClosed {
			return "[REDACTED:SCRUB_ERROR]"
		}
		return jsonStr
	}

	// Recursively scrub the data
	scrubbed := s.scrubJSONValue(data)

	// Re-serialize to JSON
	result, err := json.Marshal(scrubbed)
	if err != nil {
		// Fail closed on marshal error
		if s.cfg.FailClosed {
			return "[REDACTED:SCRUB_ERROR]"
		}
		return jsonStr
	}

	// Truncate after marshalling if too large
	resultStr := string(result)
	if len(resultStr) > maxSize {
		resultStr = truncateWithMarker(resultStr, maxSize)
	}

	return resultStr
}

// scrubJSONValue recursively scrubs a JSON value (map, array, or primitive).
func (s *Scrubber) scrubJSONValue(val interface{}) interface{} {
	switch v := val.(type) {
	case map[string]interface{}:
		return s.scrubJSONMap(v)
	case []interface{}:
		return s.scrubJSONArray(v)
	case string:
		return s.ScrubMessage(v) // Apply message scrubbing to string values
	default:
		return v // Numbers, booleans, null pass through
	}
}

// scrubJSONMap scrubs a JSON object (map).
func (s *Scrubber) scrubJSONMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for key, value := range m {
		// If key is sensitive, redact the entire value
		if s.isSensitiveKey(key) {
			result[key] = "[REDACTED]"
		} else {
			// Recursively scrub the value
			result[key] = s.scrubJSONValue(value)
		}
	}
	return result
}

// scrubJSONArray scrubs a JSON array.
func (s *Scrubber) scrubJSONArray(arr []interface{}) []interface{} {
	result := make([]interface{}, len(arr))
	for i, value := range arr {
		result[i] = s.scrubJSONValue(value)
	}
	return result
}
