package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func compiledFixture(t *testing.T) FlowDocument {
	t.Helper()
	sections, questions := billingDiningFixture()
	doc, err := CompileFlow(sections, questions)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return doc
}

func TestFlowPublisher_PublishesInOrder(t *testing.T) {
	client := &fakeFlowClient{flowID: "flow_1"}
	publisher := NewFlowPublisher(client, stubLogger{}, nil)
	doc := compiledFixture(t)

	outcome := publisher.PublishFlow(context.Background(), "Inspection_Sunrise_1", doc)
	if !outcome.Available() {
		t.Fatalf("expected published flow, got %+v", outcome)
	}
	if outcome.FlowID != "flow_1" || outcome.State() != SendStateFlowPublished {
		t.Fatalf("expected flow_1 published, got %q %s", outcome.FlowID, outcome.State())
	}
	calls := client.callLog()
	expected := []string{"create", "upload:flow_1", "publish:flow_1"}
	if strings.Join(calls, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected calls %v, got %v", expected, calls)
	}
	if len(client.created) != 1 || client.created[0].Categories[0] != FlowCategorySurvey {
		t.Fatalf("expected SURVEY category, got %+v", client.created)
	}
	serialized, _ := doc.Serialize()
	if string(client.uploaded) != string(serialized) {
		t.Fatalf("expected uploaded document to match serialized flow")
	}
}

func TestFlowPublisher_AbandonsOnStepFailure(t *testing.T) {
	cases := []struct {
		name      string
		client    *fakeFlowClient
		step      string
		abandoned string
		calls     int
	}{
		{
			name:   "create fails",
			client: &fakeFlowClient{createErr: errors.New("graph: invalid token")},
			step:   "create",
			calls:  1,
		},
		{
			name:   "create returns empty id",
			client: &fakeFlowClient{},
			step:   "create",
			calls:  1,
		},
		{
			name:      "upload fails",
			client:    &fakeFlowClient{flowID: "flow_2", uploadErr: errors.New("validation_errors")},
			step:      "upload",
			abandoned: "flow_2",
			calls:     2,
		},
		{
			name:      "publish fails",
			client:    &fakeFlowClient{flowID: "flow_3", publishErr: errors.New("publish rejected")},
			step:      "publish",
			abandoned: "flow_3",
			calls:     3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := newCaptureLogger()
			publisher := NewFlowPublisher(tc.client, logger, nil)
			outcome := publisher.PublishFlow(context.Background(), "Inspection_X_1", compiledFixture(t))
			if outcome.Available() {
				t.Fatalf("expected no flow to be available")
			}
			if outcome.FlowID != "" {
				t.Fatalf("expected empty flow id, got %q", outcome.FlowID)
			}
			if outcome.State() != SendStateFallbackDispatch {
				t.Fatalf("expected fallback state, got %s", outcome.State())
			}
			if outcome.FailedStep != tc.step {
				t.Fatalf("expected failed step %q, got %q", tc.step, outcome.FailedStep)
			}
			if outcome.AbandonedFlowID != tc.abandoned {
				t.Fatalf("expected abandoned flow %q, got %q", tc.abandoned, outcome.AbandonedFlowID)
			}
			if got := len(tc.client.callLog()); got != tc.calls {
				t.Fatalf("expected %d provider calls, got %d", tc.calls, got)
			}
			var richErr *goerrors.Error
			if !errors.As(outcome.Err, &richErr) || richErr.TextCode != ServiceErrorRemoteFailure {
				t.Fatalf("expected remote failure envelope, got %v", outcome.Err)
			}
			if tc.abandoned != "" && !hasMessage(logger.snapshot(), "error", "flow abandoned before publish") {
				t.Fatalf("expected abandoned flow to be logged")
			}
		})
	}
}

func TestFlowPublisher_WithoutClientFallsBack(t *testing.T) {
	publisher := NewFlowPublisher(nil, nil, nil)
	outcome := publisher.PublishFlow(context.Background(), "Inspection_X_1", compiledFixture(t))
	if outcome.Available() {
		t.Fatalf("expected no flow without a client")
	}
	if outcome.State() != SendStateFallbackDispatch {
		t.Fatalf("expected fallback state, got %s", outcome.State())
	}
}

func TestFlowName(t *testing.T) {
	at := time.UnixMilli(1700000000123).UTC()
	if got := FlowName("Sunrise Diner", at); got != "Inspection_Sunrise Diner_1700000000123" {
		t.Fatalf("unexpected flow name %q", got)
	}
}

func hasMessage(items []capturedLog, level string, message string) bool {
	for _, item := range items {
		if item.level == level && item.msg == message {
			return true
		}
	}
	return false
}
