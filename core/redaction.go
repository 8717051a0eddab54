package core

import "strings"

const RedactedValue = "[REDACTED]"

// RedactSensitiveMap copies metadata, masking credential-like keys at any depth.
// Phone-like keys keep only their last four digits.
func RedactSensitiveMap(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(metadata)
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		if isPhoneKey(key) {
			if phone, ok := value.(string); ok {
				target[key] = MaskPhone(phone)
				continue
			}
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	default:
		return value
	}
}

var sensitiveKeyFragments = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"signature",
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isTraceabilityKey(key) {
		return false
	}
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}

// Flow tokens correlate a send with its webhook reply and stay visible.
func isTraceabilityKey(key string) bool {
	switch key {
	case "flow_token",
		"flow_id",
		"restaurant_id",
		"section_id",
		"message_id",
		"fbtrace_id",
		"trace_id",
		"request_id":
		return true
	default:
		return false
	}
}

func isPhoneKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "from", "recipient", "phone", "phone_number", "employee_phone":
		return true
	default:
		return false
	}
}

// MaskPhone keeps the last four digits of a phone number.
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
