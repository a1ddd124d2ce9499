package custom

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/services/providers"
)

// Request/response format identifiers. "openai" is the hosted-API-like shape
// and the default for both directions.
const (
	FormatOpenAI = "openai"
	FormatCustom = "custom"
)

// noContentSentinel is returned when extraction cannot find a reply string.
// The HTTP call itself succeeded, so this degrades to a best-effort answer
// instead of failing the whole request.
const noContentSentinel = "No content found in response"

// fallbackProbePaths is tried in order when a custom response format has no
// explicit field path configured.
var fallbackProbePaths = []string{"response", "text", "content", "output", "result"}

// translator converts normalized conversations into the endpoint's request
// shape and extracts reply strings from its response shape.
type translator struct {
	endpoint EndpointConfig
	logger   *zap.Logger
}

// buildRequestBody produces the downstream request payload. The custom
// format substitutes tokens into the user template; a missing or malformed
// template degrades to a flat {prompt, model} shape.
func (t *translator) buildRequestBody(messages []providers.Message, model string, opts *providers.GenerationOptions) map[string]interface{} {
	if t.endpoint.RequestFormat == FormatCustom {
		if body, ok := t.applyTemplate(messages, model, opts); ok {
			return body
		}
		return t.flattenedRequest(messages, model)
	}

	wireMessages := make([]map[string]string, 0, len(messages))
	for _, msg := range messages {
		wireMessages = append(wireMessages, map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}
	return map[string]interface{}{
		"model":       model,
		"messages":    wireMessages,
		"temperature": opts.ResolveTemperature(),
		"max_tokens":  opts.ResolveMaxTokens(),
		"top_p":       opts.ResolveTopP(),
		"stream":      false,
	}
}

// applyTemplate performs literal token substitution on the serialized
// template and re-parses the result. String tokens are JSON-escaped so a
// quoted "{{user_message}}" stays valid JSON; numeric tokens substitute
// unquoted, so a template like {"t": {{temperature}}} only parses after
// substitution. Validity is therefore checked on the substituted text, not
// the raw template.
func (t *translator) applyTemplate(messages []providers.Message, model string, opts *providers.GenerationOptions) (map[string]interface{}, bool) {
	tmpl := strings.TrimSpace(t.endpoint.RequestTemplate)
	if tmpl == "" {
		return nil, false
	}

	replacer := strings.NewReplacer(
		"{{user_message}}", jsonEscape(lastUserMessage(messages)),
		"{{system_message}}", jsonEscape(firstSystemMessage(messages)),
		"{{model}}", jsonEscape(model),
		"{{temperature}}", strconv.FormatFloat(opts.ResolveTemperature(), 'g', -1, 64),
		"{{max_tokens}}", strconv.Itoa(opts.ResolveMaxTokens()),
	)
	substituted := replacer.Replace(tmpl)

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(substituted), &body); err != nil {
		t.logger.Warn("request template does not parse after substitution, using fallback shape", zap.Error(err))
		return nil, false
	}
	return body, true
}

// flattenedRequest is the degraded request shape: one prompt string built
// from "role: content" lines.
func (t *translator) flattenedRequest(messages []providers.Message, model string) map[string]interface{} {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, msg.Role+": "+msg.Content)
	}
	return map[string]interface{}{
		"prompt": strings.Join(lines, "\n"),
		"model":  model,
	}
}

// extractContent pulls the reply string out of the response body. Extraction
// failures are logged and degrade to the sentinel, never to a hard failure.
func (t *translator) extractContent(body []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.logger.Warn("response is not a JSON object, returning raw body", zap.Error(err))
		return strings.TrimSpace(string(body))
	}

	if t.endpoint.ResponseFormat != FormatCustom {
		return t.extractOpenAIShape(parsed)
	}

	if path := strings.TrimSpace(t.endpoint.ResponsePath); path != "" {
		value, err := walkPath(parsed, path)
		if err != nil {
			t.logger.Warn("response path extraction failed",
				zap.String("path", path),
				zap.Error(err))
			return noContentSentinel
		}
		return stringify(value)
	}

	// No explicit path configured: probe common fields, else return the
	// whole response serialized.
	for _, key := range fallbackProbePaths {
		if value, ok := parsed[key]; ok {
			return stringify(value)
		}
	}
	return strings.TrimSpace(string(body))
}

// extractOpenAIShape reads choices[0].message.content, falling back to
// choices[0].text, else the sentinel.
func (t *translator) extractOpenAIShape(parsed map[string]interface{}) string {
	choices, ok := parsed["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return noContentSentinel
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return noContentSentinel
	}

	if message, ok := choice["message"].(map[string]interface{}); ok {
		if content, ok := message["content"].(string); ok && content != "" {
			return content
		}
	}
	if text, ok := choice["text"].(string); ok && text != "" {
		return text
	}
	return noContentSentinel
}

// walkPath follows a dotted path through nested JSON objects. A missing key
// or a non-object intermediate segment is an extraction error.
func walkPath(parsed map[string]interface{}, path string) (interface{}, error) {
	var current interface{} = parsed
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, &pathError{path: path, segment: segment, reason: "parent is not an object"}
		}
		current, ok = obj[segment]
		if !ok {
			return nil, &pathError{path: path, segment: segment, reason: "key not found"}
		}
	}
	return current, nil
}

type pathError struct {
	path    string
	segment string
	reason  string
}

func (e *pathError) Error() string {
	return "path " + e.path + " at segment " + e.segment + ": " + e.reason
}

// stringify renders an extracted value as text: strings pass through,
// anything else is re-serialized.
func stringify(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return noContentSentinel
	}
	return string(raw)
}

// jsonEscape escapes a string for literal embedding inside a JSON document,
// without the surrounding quotes.
func jsonEscape(s string) string {
	raw, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(raw[1 : len(raw)-1])
}

func lastUserMessage(messages []providers.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == providers.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func firstSystemMessage(messages []providers.Message) string {
	for _, msg := range messages {
		if msg.Role == providers.RoleSystem {
			return msg.Content
		}
	}
	return ""
}
