package core

import (
	"context"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const SendInspectionMessage = "Inspection forms sent"

type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	flowClient      FlowClient
	catalog         CatalogReader
	tokens          TokenGenerator
	clock           Clock
	publisher       *FlowPublisher
	dispatcher      *Dispatcher
	observer        observer
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	FlowClient      FlowClient
	Catalog         CatalogReader
	Tokens          TokenGenerator
	Clock           Clock
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("inspection", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("inspection"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.tokens == nil {
		builder.tokens = UUIDTokenGenerator{}
	}
	if builder.clock == nil {
		builder.clock = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		flowClient:      builder.flowClient,
		catalog:         builder.catalog,
		tokens:          builder.tokens,
		clock:           builder.clock,
		publisher:       NewFlowPublisher(builder.flowClient, logger, builder.metricsRecorder),
		dispatcher: NewDispatcher(
			builder.flowClient,
			builder.tokens,
			finalConfig.Dispatch,
			logger,
			builder.metricsRecorder,
		),
		observer: newObserver(logger, builder.metricsRecorder),
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		FlowClient:      s.flowClient,
		Catalog:         s.catalog,
		Tokens:          s.tokens,
		Clock:           s.clock,
	}
}

// SendInspection compiles the restaurant's checklist, publishes it as a
// flow, and sends it to every recipient. Publication failures switch the
// whole request to the text fallback; per-recipient failures stay in the
// result list. Only validation and lookup failures are returned as errors.
func (s *Service) SendInspection(ctx context.Context, req SendInspectionRequest) (result SendInspectionResult, err error) {
	startedAt := time.Now().UTC()
	restaurantID := strings.TrimSpace(req.RestaurantID)
	fields := map[string]any{
		"restaurant_id": restaurantID,
		"recipients":    len(req.PhoneNumbers),
	}
	defer func() {
		if s == nil {
			return
		}
		if result.Path != "" {
			fields["path"] = string(result.Path)
			fields["state"] = string(result.State)
		}
		s.observer.observeOperation(ctx, startedAt, "send_inspection", err, fields)
	}()

	if s == nil || s.catalog == nil {
		err = s.mapError(InternalError("inspection: catalog reader is not configured"))
		return SendInspectionResult{}, err
	}
	if restaurantID == "" {
		err = s.mapError(ValidationError("restaurantId", "restaurant id is required"))
		return SendInspectionResult{}, err
	}
	recipients := normalizeRecipients(req.PhoneNumbers)
	if !HasRecipient(recipients) {
		err = s.mapError(ValidationError("phoneNumbers", "at least one phone number is required"))
		return SendInspectionResult{}, err
	}

	restaurant, err := s.catalog.GetRestaurant(ctx, restaurantID)
	if err != nil {
		err = s.mapError(err)
		return SendInspectionResult{}, err
	}
	sections, err := s.catalog.ListSections(ctx, restaurant.ID)
	if err != nil {
		err = s.mapError(err)
		return SendInspectionResult{}, err
	}
	questions, err := s.catalog.ListQuestions(ctx, restaurant.ID)
	if err != nil {
		err = s.mapError(err)
		return SendInspectionResult{}, err
	}
	doc, err := CompileFlow(sections, questions)
	if err != nil {
		err = s.mapError(err)
		return SendInspectionResult{}, err
	}

	var outcome PublishOutcome
	if s.config.Dispatch.FlowsDisabled {
		outcome.Machine = NewSendStateMachine()
		_ = outcome.Machine.Abandon()
	} else {
		outcome = s.publisher.PublishFlow(ctx, FlowName(restaurant.Name, s.clock()), doc)
	}
	machine := outcome.Machine

	dispatch := DispatchRequest{
		Restaurant:   restaurant,
		SectionCount: len(sections),
		Recipients:   recipients,
	}
	result.Path = DispatchKindFallback
	if outcome.Available() {
		if advanceErr := machine.Advance(SendStateDispatching); advanceErr != nil {
			err = s.mapError(advanceErr)
			return SendInspectionResult{}, err
		}
		flowID := outcome.FlowID
		dispatch.FlowID = flowID
		dispatch.FirstScreen = doc.FirstScreenID()
		result.FlowID = &flowID
		result.Path = DispatchKindFlow
	} else if outcome.Err != nil {
		fields["publish_error"] = outcome.Err.Error()
		fields["failed_step"] = outcome.FailedStep
	}

	result.Results = s.dispatcher.Dispatch(ctx, dispatch)
	if finishErr := machine.Finish(); finishErr != nil {
		err = s.mapError(finishErr)
		return SendInspectionResult{}, err
	}
	result.Message = SendInspectionMessage
	result.State = machine.State()
	result.Transitions = machine.Trail()

	failed := 0
	for _, entry := range result.Results {
		if !entry.Success {
			failed++
		}
	}
	fields["failed_recipients"] = failed
	return result, nil
}

func normalizeRecipients(phoneNumbers []string) []string {
	if len(phoneNumbers) == 0 {
		return nil
	}
	out := make([]string, 0, len(phoneNumbers))
	for _, phone := range phoneNumbers {
		out = append(out, strings.TrimSpace(phone))
	}
	return out
}

// HasRecipient reports whether any entry is a non-blank phone number. Blank
// entries mixed with real ones still get their own failed result slot.
func HasRecipient(phoneNumbers []string) bool {
	for _, phone := range phoneNumbers {
		if strings.TrimSpace(phone) != "" {
			return true
		}
	}
	return false
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
