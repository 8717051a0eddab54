package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MessageTypeInteractive = "interactive"
	MessageTypeText        = "text"
	InteractiveTypeNFM     = "nfm_reply"
)

type WebhookEnvelope struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string        `json:"field"`
	Value *WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []WebhookContact `json:"contacts"`
	Messages         []WebhookMessage `json:"messages"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookMessage struct {
	ID          string              `json:"id"`
	From        string              `json:"from"`
	Timestamp   json.RawMessage     `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *WebhookText        `json:"text"`
	Interactive *WebhookInteractive `json:"interactive"`
}

type WebhookText struct {
	Body string `json:"body"`
}

type WebhookInteractive struct {
	Type     string    `json:"type"`
	NFMReply *NFMReply `json:"nfm_reply"`
}

// NFMReply is a completed flow. ResponseJSON holds the submitted answers as
// a string-encoded JSON object.
type NFMReply struct {
	Name         string          `json:"name"`
	Body         json.RawMessage `json:"body"`
	ResponseJSON string          `json:"response_json"`
}

func DecodeWebhookEnvelope(body []byte) (WebhookEnvelope, error) {
	var envelope WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return WebhookEnvelope{}, fmt.Errorf("providers/whatsapp: parse webhook payload: %w", err)
	}
	return envelope, nil
}

// FirstValue returns entry[0].changes[0].value, the only slot the ingester reads.
func (e WebhookEnvelope) FirstValue() *WebhookValue {
	if len(e.Entry) == 0 || len(e.Entry[0].Changes) == 0 {
		return nil
	}
	return e.Entry[0].Changes[0].Value
}

func (v *WebhookValue) FirstMessage() *WebhookMessage {
	if v == nil || len(v.Messages) == 0 {
		return nil
	}
	return &v.Messages[0]
}

func (v *WebhookValue) ContactName() string {
	if v == nil || len(v.Contacts) == 0 {
		return ""
	}
	return strings.TrimSpace(v.Contacts[0].Profile.Name)
}

func (m *WebhookMessage) IsFlowCompletion() bool {
	return m != nil &&
		m.Type == MessageTypeInteractive &&
		m.Interactive != nil &&
		m.Interactive.Type == InteractiveTypeNFM &&
		m.Interactive.NFMReply != nil
}

// SubmittedAt reads the epoch-seconds timestamp, sent either as a string or
// a number.
func (m *WebhookMessage) SubmittedAt() (time.Time, error) {
	if m == nil {
		return time.Time{}, fmt.Errorf("providers/whatsapp: message is required")
	}
	raw := strings.TrimSpace(string(m.Timestamp))
	raw = strings.Trim(raw, `"`)
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return time.Time{}, fmt.Errorf("providers/whatsapp: message timestamp is required")
	}
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("providers/whatsapp: invalid message timestamp %q", raw)
	}
	return time.UnixMilli(int64(seconds * 1000)).UTC(), nil
}

// SectionRef reads body.section when body is an object, or a string that
// itself encodes an object. Anything else yields no reference.
func (r *NFMReply) SectionRef() *string {
	if r == nil {
		return nil
	}
	raw := bytes.TrimSpace(r.Body)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		raw = bytes.TrimSpace([]byte(text))
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var body struct {
		Section any `json:"section"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return stringRef(body.Section)
}

type ResponseEntry struct {
	Key   string
	Value any
}

// DecodeResponseJSON decodes the flow answers keeping keys in the order they
// were received. A repeated key keeps its first position and its last value.
func DecodeResponseJSON(raw string) ([]ResponseEntry, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	token, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("providers/whatsapp: parse response_json: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("providers/whatsapp: response_json must be an object")
	}

	entries := []ResponseEntry{}
	positions := map[string]int{}
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("providers/whatsapp: parse response_json key: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("providers/whatsapp: response_json key must be a string")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("providers/whatsapp: parse response_json value for %q: %w", key, err)
		}
		if idx, seen := positions[key]; seen {
			entries[idx].Value = value
			continue
		}
		positions[key] = len(entries)
		entries = append(entries, ResponseEntry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("providers/whatsapp: parse response_json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("providers/whatsapp: response_json has trailing data")
	}
	return entries, nil
}

// LookupEntry returns a top-level string value from decoded answers.
func LookupEntry(entries []ResponseEntry, key string) *string {
	for _, entry := range entries {
		if entry.Key == key {
			return stringRef(entry.Value)
		}
	}
	return nil
}

func stringRef(value any) *string {
	var text string
	switch typed := value.(type) {
	case string:
		text = strings.TrimSpace(typed)
	case float64:
		text = strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return nil
	}
	if text == "" {
		return nil
	}
	return &text
}
