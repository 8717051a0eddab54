package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func newTestService(t *testing.T, client *fakeFlowClient, catalog CatalogReader, runtime Config, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithFlowClient(client),
		WithCatalogReader(catalog),
		WithTokenGenerator(&sequenceTokens{}),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000).UTC() }),
		WithLogger(stubLogger{}),
	}
	svc, err := NewService(runtime, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSendInspection_FlowPath(t *testing.T) {
	client := &fakeFlowClient{flowID: "flow_1"}
	svc := newTestService(t, client, fixtureCatalog(), Config{})

	result, err := svc.SendInspection(context.Background(), SendInspectionRequest{
		RestaurantID: "r1",
		PhoneNumbers: []string{"111", "222"},
	})
	if err != nil {
		t.Fatalf("send inspection: %v", err)
	}
	if result.Message != SendInspectionMessage {
		t.Fatalf("expected %q, got %q", SendInspectionMessage, result.Message)
	}
	if result.FlowID == nil || *result.FlowID != "flow_1" {
		t.Fatalf("expected flow id flow_1, got %v", result.FlowID)
	}
	if result.Path != DispatchKindFlow || result.State != SendStateComplete {
		t.Fatalf("expected flow/complete, got %s/%s", result.Path, result.State)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Results))
	}
	if client.created[0].Name != "Inspection_Sunrise Diner_1700000000000" {
		t.Fatalf("unexpected flow name %q", client.created[0].Name)
	}
	last := result.Transitions[len(result.Transitions)-1]
	if last != SendStateComplete || result.Transitions[len(result.Transitions)-2] != SendStateDispatching {
		t.Fatalf("unexpected transitions %v", result.Transitions)
	}
}

func TestSendInspection_PublishFailureFallsBackForEveryone(t *testing.T) {
	client := &fakeFlowClient{flowID: "flow_9", uploadErr: errors.New("graph: invalid flow json")}
	svc := newTestService(t, client, fixtureCatalog(), Config{})

	result, err := svc.SendInspection(context.Background(), SendInspectionRequest{
		RestaurantID: "r1",
		PhoneNumbers: []string{"111", "222", "333"},
	})
	if err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
	if result.FlowID != nil {
		t.Fatalf("expected no flow id, got %q", *result.FlowID)
	}
	if result.Path != DispatchKindFallback || result.State != SendStateComplete {
		t.Fatalf("expected fallback/complete, got %s/%s", result.Path, result.State)
	}
	for _, entry := range result.Results {
		if entry.Kind != DispatchKindFallback || !strings.Contains(entry.Body, "Sections: 2") {
			t.Fatalf("expected fallback entry, got %+v", entry)
		}
	}
	for _, msg := range client.sentMessages() {
		if msg.Kind != OutboundMessageText {
			t.Fatalf("expected only text sends after publish failure, got %+v", msg)
		}
	}
}

func TestSendInspection_FlowsDisabledSkipsProviderFlowCalls(t *testing.T) {
	client := &fakeFlowClient{flowID: "flow_1"}
	svc := newTestService(t, client, fixtureCatalog(), Config{Dispatch: DispatchConfig{FlowsDisabled: true}})

	result, err := svc.SendInspection(context.Background(), SendInspectionRequest{
		RestaurantID: "r1",
		PhoneNumbers: []string{"111"},
	})
	if err != nil {
		t.Fatalf("send inspection: %v", err)
	}
	if result.Path != DispatchKindFallback {
		t.Fatalf("expected fallback path, got %s", result.Path)
	}
	for _, call := range client.callLog() {
		if !strings.HasPrefix(call, "send:") {
			t.Fatalf("expected no flow calls, got %v", client.callLog())
		}
	}
}

func TestSendInspection_ValidationBeforeRemoteCalls(t *testing.T) {
	emptyCatalog := fixtureCatalog()
	emptyCatalog.questions = map[string][]Question{}

	cases := []struct {
		name     string
		catalog  memoryCatalog
		req      SendInspectionRequest
		textCode string
		status   int
	}{
		{
			name:     "missing restaurant id",
			catalog:  fixtureCatalog(),
			req:      SendInspectionRequest{PhoneNumbers: []string{"111"}},
			textCode: ServiceErrorBadInput,
			status:   400,
		},
		{
			name:     "no recipients",
			catalog:  fixtureCatalog(),
			req:      SendInspectionRequest{RestaurantID: "r1"},
			textCode: ServiceErrorBadInput,
			status:   400,
		},
		{
			name:     "only blank recipients",
			catalog:  fixtureCatalog(),
			req:      SendInspectionRequest{RestaurantID: "r1", PhoneNumbers: []string{"  ", ""}},
			textCode: ServiceErrorBadInput,
			status:   400,
		},
		{
			name:     "unknown restaurant",
			catalog:  fixtureCatalog(),
			req:      SendInspectionRequest{RestaurantID: "nope", PhoneNumbers: []string{"111"}},
			textCode: ServiceErrorNotFound,
			status:   404,
		},
		{
			name:     "no questions",
			catalog:  emptyCatalog,
			req:      SendInspectionRequest{RestaurantID: "r1", PhoneNumbers: []string{"111"}},
			textCode: ServiceErrorBadInput,
			status:   400,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeFlowClient{flowID: "flow_1"}
			svc := newTestService(t, client, tc.catalog, Config{})
			_, err := svc.SendInspection(context.Background(), tc.req)
			if err == nil {
				t.Fatalf("expected error")
			}
			var richErr *goerrors.Error
			if !errors.As(err, &richErr) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if richErr.TextCode != tc.textCode || richErr.Code != tc.status {
				t.Fatalf("expected %s/%d, got %s/%d", tc.textCode, tc.status, richErr.TextCode, richErr.Code)
			}
			if calls := client.callLog(); len(calls) != 0 {
				t.Fatalf("expected no provider calls, got %v", calls)
			}
		})
	}
}

func TestSendInspection_PartialRecipientFailure(t *testing.T) {
	client := &fakeFlowClient{flowID: "flow_1", failRecipient: map[string]error{"222": errors.New("graph: rejected")}}
	svc := newTestService(t, client, fixtureCatalog(), Config{})

	result, err := svc.SendInspection(context.Background(), SendInspectionRequest{
		RestaurantID: "r1",
		PhoneNumbers: []string{"111", "222"},
	})
	if err != nil {
		t.Fatalf("expected per-recipient failure to stay in results, got %v", err)
	}
	if !result.Results[0].Success || result.Results[1].Success {
		t.Fatalf("unexpected results %+v", result.Results)
	}
}

func TestSendInspection_BlankRecipientKeepsItsSlot(t *testing.T) {
	client := &fakeFlowClient{flowID: "flow_1"}
	svc := newTestService(t, client, fixtureCatalog(), Config{})

	result, err := svc.SendInspection(context.Background(), SendInspectionRequest{
		RestaurantID: "r1",
		PhoneNumbers: []string{"111", "   "},
	})
	if err != nil {
		t.Fatalf("expected blank entry to fail in its slot, got %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Results))
	}
	if !result.Results[0].Success || result.Results[1].Success || result.Results[1].Error == "" {
		t.Fatalf("unexpected results %+v", result.Results)
	}
}

func TestSendInspection_WithoutCatalogIsInternalError(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.SendInspection(context.Background(), SendInspectionRequest{RestaurantID: "r1", PhoneNumbers: []string{"1"}})
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) || richErr.TextCode != ServiceErrorInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
