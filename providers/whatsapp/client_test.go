package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

type graphStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (s *graphStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	record := recordedRequest{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &record.body)
	}
	s.mu.Lock()
	s.requests = append(s.requests, record)
	s.mu.Unlock()
	s.handler(w, r)
}

func newStubClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *graphStub) {
	t.Helper()
	stub := &graphStub{handler: handler}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)
	client := NewClient(ClientConfig{
		BaseURL:           server.URL,
		APIVersion:        "v18.0",
		AccessToken:       "tok_1",
		PhoneNumberID:     "phone_1",
		BusinessAccountID: "waba_1",
	}, nil)
	return client, stub
}

func TestClient_FlowLifecycleRequests(t *testing.T) {
	client, stub := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v18.0/waba_1/flows":
			_, _ = w.Write([]byte(`{"id":"flow_1"}`))
		case "/v18.0/flow_1/assets":
			_, _ = w.Write([]byte(`{"success":true,"validation_errors":[]}`))
		case "/v18.0/flow_1/publish":
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	flowID, err := client.CreateFlow(ctx, core.CreateFlowRequest{Name: "Inspection_X_1", Categories: []string{"SURVEY"}})
	if err != nil {
		t.Fatalf("create flow: %v", err)
	}
	if flowID != "flow_1" {
		t.Fatalf("expected flow_1, got %q", flowID)
	}
	if err := client.UploadFlowJSON(ctx, flowID, []byte(`{"version":"3.0"}`)); err != nil {
		t.Fatalf("upload flow json: %v", err)
	}
	if err := client.PublishFlow(ctx, flowID); err != nil {
		t.Fatalf("publish flow: %v", err)
	}

	if len(stub.requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(stub.requests))
	}
	create := stub.requests[0]
	if create.method != http.MethodPost || create.auth != "Bearer tok_1" {
		t.Fatalf("unexpected create request %+v", create)
	}
	if create.body["name"] != "Inspection_X_1" {
		t.Fatalf("unexpected create body %#v", create.body)
	}
	upload := stub.requests[1]
	if upload.body["name"] != "flow.json" || upload.body["asset_type"] != "FLOW_JSON" {
		t.Fatalf("unexpected upload body %#v", upload.body)
	}
	if upload.body["flow_json"] != `{"version":"3.0"}` {
		t.Fatalf("expected serialized flow as string, got %#v", upload.body["flow_json"])
	}
}

func TestClient_UploadValidationErrorsFail(t *testing.T) {
	client, _ := newStubClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"validation_errors":[{"error":"INVALID_PROPERTY","message":"Property label is required"}]}`))
	})
	err := client.UploadFlowJSON(context.Background(), "flow_1", []byte(`{}`))
	if err == nil {
		t.Fatalf("expected validation errors to fail the upload")
	}
	var rich *goerrors.Error
	if !errors.As(err, &rich) || rich.TextCode != core.ServiceErrorRemoteFailure {
		t.Fatalf("expected remote failure envelope, got %v", err)
	}
	issues, _ := rich.Metadata["validation_errors"].([]string)
	if len(issues) != 1 || issues[0] != "Property label is required" {
		t.Fatalf("unexpected validation issues %#v", rich.Metadata["validation_errors"])
	}
}

func TestClient_DecodesGraphErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		textCode string
	}{
		{name: "bad request", status: http.StatusBadRequest, textCode: core.ServiceErrorRemoteFailure},
		{name: "unauthorized", status: http.StatusUnauthorized, textCode: core.ServiceErrorUnauthorized},
		{name: "throttled", status: http.StatusTooManyRequests, textCode: core.ServiceErrorRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newStubClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"fbtrace_id":"AbC"}}`))
			})
			_, err := client.CreateFlow(context.Background(), core.CreateFlowRequest{Name: "x"})
			var rich *goerrors.Error
			if !errors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.TextCode != tc.textCode {
				t.Fatalf("expected %s, got %s", tc.textCode, rich.TextCode)
			}
			if rich.Metadata["fbtrace_id"] != "AbC" || rich.Metadata["graph_code"] != 100 {
				t.Fatalf("expected graph metadata, got %#v", rich.Metadata)
			}
			if rich.Metadata["retry_after_seconds"] != int64(7) {
				t.Fatalf("expected retry-after metadata, got %#v", rich.Metadata["retry_after_seconds"])
			}
			if !strings.Contains(rich.Message, "Invalid parameter") {
				t.Fatalf("expected graph message in error, got %q", rich.Message)
			}
		})
	}
}

func TestClient_SendFlowInvitation(t *testing.T) {
	client, stub := newStubClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.ABC"}]}`))
	})
	receipt, err := client.SendMessage(context.Background(), core.OutboundMessage{
		To:   "15550001",
		Kind: core.OutboundMessageFlow,
		Flow: &core.FlowInvitation{
			FlowID:      "flow_1",
			FlowToken:   "inspection_tok",
			CTA:         "Start Inspection",
			FirstScreen: "section_0",
			Header:      "Restaurant Inspection",
			Body:        "Please complete the inspection for A - B",
			Footer:      "Powered by Heyopey.ai",
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if receipt.MessageID != "wamid.ABC" {
		t.Fatalf("expected message id from messages[0], got %q", receipt.MessageID)
	}
	req := stub.requests[0]
	if req.path != "/v18.0/phone_1/messages" {
		t.Fatalf("unexpected path %q", req.path)
	}
	interactive := req.body["interactive"].(map[string]any)
	if interactive["type"] != "flow" {
		t.Fatalf("expected interactive flow, got %#v", interactive["type"])
	}
	params := interactive["action"].(map[string]any)["parameters"].(map[string]any)
	if params["flow_message_version"] != "3" || params["flow_action"] != "navigate" {
		t.Fatalf("unexpected flow parameters %#v", params)
	}
	if params["flow_token"] != "inspection_tok" || params["flow_id"] != "flow_1" {
		t.Fatalf("unexpected flow identifiers %#v", params)
	}
	if params["flow_action_payload"].(map[string]any)["screen"] != "section_0" {
		t.Fatalf("unexpected entry screen %#v", params["flow_action_payload"])
	}
	if interactive["header"].(map[string]any)["text"] != "Restaurant Inspection" {
		t.Fatalf("unexpected header %#v", interactive["header"])
	}
}

func TestClient_SendTextMessage(t *testing.T) {
	client, stub := newStubClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.TXT"}]}`))
	})
	if _, err := client.SendMessage(context.Background(), core.OutboundMessage{
		To:   "15550001",
		Kind: core.OutboundMessageText,
		Text: "hello",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	body := stub.requests[0].body
	if body["type"] != "text" || body["messaging_product"] != "whatsapp" {
		t.Fatalf("unexpected text payload %#v", body)
	}
	if body["text"].(map[string]any)["body"] != "hello" {
		t.Fatalf("unexpected text body %#v", body["text"])
	}
	if _, ok := body["interactive"]; ok {
		t.Fatalf("expected no interactive block on text message")
	}
}

func TestClient_RequiresAccountIdentifiers(t *testing.T) {
	client := NewClient(ClientConfig{}, nil)
	if _, err := client.CreateFlow(context.Background(), core.CreateFlowRequest{Name: "x"}); err == nil {
		t.Fatalf("expected missing business account id to fail")
	}
	if _, err := client.SendMessage(context.Background(), core.OutboundMessage{To: "1", Kind: core.OutboundMessageText}); err == nil {
		t.Fatalf("expected missing phone number id to fail")
	}
}
