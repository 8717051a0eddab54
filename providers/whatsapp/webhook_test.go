package whatsapp

import (
	"testing"
	"time"
)

func TestDecodeResponseJSON_PreservesOrder(t *testing.T) {
	entries, err := DecodeResponseJSON(`{"Receipt printed?":"yes","Queue length":"4","Notes":"ok","flow_token":"inspection_1"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	expected := []string{"Receipt printed?", "Queue length", "Notes", "flow_token"}
	if len(entries) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(entries))
	}
	for idx, key := range expected {
		if entries[idx].Key != key {
			t.Fatalf("expected key %q at %d, got %q", key, idx, entries[idx].Key)
		}
	}
	if ref := LookupEntry(entries, "flow_token"); ref == nil || *ref != "inspection_1" {
		t.Fatalf("expected flow_token lookup, got %v", ref)
	}
}

func TestDecodeResponseJSON_RepeatedKeyKeepsFirstPosition(t *testing.T) {
	entries, err := DecodeResponseJSON(`{"a":1,"b":2,"a":3}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "a" || entries[0].Value != float64(3) {
		t.Fatalf("unexpected entries %#v", entries)
	}
}

func TestDecodeResponseJSON_Rejects(t *testing.T) {
	for _, raw := range []string{"", "not json", `["a"]`, `{"a":1} trailing`, `{"a":}`} {
		t.Run(raw, func(t *testing.T) {
			if _, err := DecodeResponseJSON(raw); err == nil {
				t.Fatalf("expected %q to be rejected", raw)
			}
		})
	}
}

func TestWebhookMessage_SubmittedAt(t *testing.T) {
	cases := []struct {
		raw      string
		expected time.Time
		fails    bool
	}{
		{raw: `"1700000000"`, expected: time.Unix(1700000000, 0).UTC()},
		{raw: `1700000000`, expected: time.Unix(1700000000, 0).UTC()},
		{raw: `"abc"`, fails: true},
		{raw: ``, fails: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			msg := &WebhookMessage{Timestamp: []byte(tc.raw)}
			got, err := msg.SubmittedAt()
			if tc.fails {
				if err == nil {
					t.Fatalf("expected failure for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("submitted at: %v", err)
			}
			if !got.Equal(tc.expected) {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestNFMReply_SectionRef(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "object", body: `{"section":"sec_1"}`, expected: "sec_1"},
		{name: "encoded object", body: `"{\"section\":\"sec_2\"}"`, expected: "sec_2"},
		{name: "plain text", body: `"Sent"`},
		{name: "missing", body: ``},
		{name: "null section", body: `{"section":null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := &NFMReply{Body: []byte(tc.body)}
			ref := reply.SectionRef()
			if tc.expected == "" {
				if ref != nil {
					t.Fatalf("expected no section, got %q", *ref)
				}
				return
			}
			if ref == nil || *ref != tc.expected {
				t.Fatalf("expected %q, got %v", tc.expected, ref)
			}
		})
	}
}

func TestDecodeWebhookEnvelope_FirstValue(t *testing.T) {
	envelope, err := DecodeWebhookEnvelope([]byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"contacts":[{"profile":{"name":"Ana"}}],"messages":[{"from":"111","type":"interactive","interactive":{"type":"nfm_reply","nfm_reply":{"name":"flow","response_json":"{}"}}}]}}]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	value := envelope.FirstValue()
	if value == nil {
		t.Fatalf("expected first value")
	}
	if value.ContactName() != "Ana" {
		t.Fatalf("expected contact name Ana, got %q", value.ContactName())
	}
	if !value.FirstMessage().IsFlowCompletion() {
		t.Fatalf("expected flow completion message")
	}
	if (WebhookEnvelope{}).FirstValue() != nil {
		t.Fatalf("expected nil value for empty envelope")
	}
}
