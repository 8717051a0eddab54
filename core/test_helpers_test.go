package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type sentMessage struct {
	msg OutboundMessage
}

// fakeFlowClient records every provider call. Failures are injected per
// step or per recipient.
type fakeFlowClient struct {
	mu sync.Mutex

	flowID        string
	createErr     error
	uploadErr     error
	publishErr    error
	failRecipient map[string]error
	sendDelay     time.Duration

	calls    []string
	uploaded []byte
	created  []CreateFlowRequest
	sent     []sentMessage

	inFlight    int
	maxInFlight int
}

func (f *fakeFlowClient) CreateFlow(_ context.Context, req CreateFlowRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	f.created = append(f.created, req)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.flowID, nil
}

func (f *fakeFlowClient) UploadFlowJSON(_ context.Context, flowID string, document []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "upload:"+flowID)
	f.uploaded = append([]byte(nil), document...)
	return f.uploadErr
}

func (f *fakeFlowClient) PublishFlow(_ context.Context, flowID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "publish:"+flowID)
	return f.publishErr
}

func (f *fakeFlowClient) SendMessage(_ context.Context, msg OutboundMessage) (SendReceipt, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls = append(f.calls, "send:"+msg.To)
	f.sent = append(f.sent, sentMessage{msg: msg})
	delay := f.sendDelay
	failure := f.failRecipient[msg.To]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	if failure != nil {
		return SendReceipt{}, failure
	}
	return SendReceipt{MessageID: "wamid." + msg.To}, nil
}

func (f *fakeFlowClient) sentMessages() []OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OutboundMessage, 0, len(f.sent))
	for _, item := range f.sent {
		out = append(out, item.msg)
	}
	return out
}

func (f *fakeFlowClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type sequenceTokens struct {
	mu   sync.Mutex
	next int
}

func (s *sequenceTokens) NewFlowToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("inspection_tok_%d", s.next)
}

type memoryCatalog struct {
	restaurants map[string]Restaurant
	sections    map[string][]Section
	questions   map[string][]Question
	listErr     error
}

func (c memoryCatalog) GetRestaurant(_ context.Context, id string) (Restaurant, error) {
	restaurant, ok := c.restaurants[id]
	if !ok {
		return Restaurant{}, NotFoundError("inspection: restaurant not found", map[string]any{"restaurant_id": id})
	}
	return restaurant, nil
}

func (c memoryCatalog) ListSections(_ context.Context, restaurantID string) ([]Section, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]Section(nil), c.sections[restaurantID]...), nil
}

func (c memoryCatalog) ListQuestions(_ context.Context, restaurantID string) ([]Question, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]Question(nil), c.questions[restaurantID]...), nil
}

func billingDiningFixture() ([]Section, []Question) {
	sections := []Section{
		{ID: "a", RestaurantID: "r1", Name: "Billing"},
		{ID: "b", RestaurantID: "r1", Name: "Dining"},
	}
	questions := []Question{
		{ID: "q1", RestaurantID: "r1", SectionID: "a", Text: "Receipt printed?", Type: QuestionTypeBoolean},
		{ID: "q2", RestaurantID: "r1", SectionID: "a", Text: "Queue length", Type: QuestionTypeNumeric},
		{ID: "q3", RestaurantID: "r1", SectionID: "b", Text: "Notes", Type: QuestionTypeText},
	}
	return sections, questions
}

func fixtureCatalog() memoryCatalog {
	sections, questions := billingDiningFixture()
	return memoryCatalog{
		restaurants: map[string]Restaurant{
			"r1": {ID: "r1", Name: "Sunrise Diner", Location: "Main St"},
		},
		sections:  map[string][]Section{"r1": sections},
		questions: map[string][]Question{"r1": questions},
	}
}
