package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"callprep/internal/logging"
	"callprep/internal/notifications"
	"callprep/internal/progress"
	"callprep/internal/services"
)

// ErrNoRunner is returned by Launch when the orchestrator has no Runner.
var ErrNoRunner = errors.New("lifecycle: detached mode requires a runner")

// Orchestrator drives call lifecycles against the configured collaborators.
type Orchestrator struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(deps Dependencies, opts Options) *Orchestrator {
	if deps.Registry == nil {
		deps.Registry = progress.NewRegistry(progress.DefaultCapacity)
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts.withDefaults(),
		logger: logging.NewComponentLogger(deps.Logger, "lifecycle"),
	}
}

// Registry exposes the progress registry the orchestrator writes to.
func (o *Orchestrator) Registry() *progress.Registry {
	return o.deps.Registry
}

// Run places the call and blocks until the lifecycle is terminal. A failure
// to place the call is returned without creating a progress entry; every
// later failure is both recorded in the registry and returned.
func (o *Orchestrator) Run(ctx context.Context, req services.CallRequest) (Outcome, error) {
	lc, err := o.initiate(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return o.drive(lc.context(ctx), lc)
}

// Launch places the call and returns its handle once the initiated entry is
// registered. The rest of the lifecycle runs on the Runner under the
// runner's context, so cancelling ctx after Launch returns has no effect on
// the call.
func (o *Orchestrator) Launch(ctx context.Context, req services.CallRequest) (string, error) {
	runner := o.deps.Runner
	if runner == nil {
		return "", ErrNoRunner
	}
	lc, err := o.initiate(ctx, req)
	if err != nil {
		return "", err
	}

	task := Task{
		Handle: lc.handle,
		Run: func(runCtx context.Context) {
			_, _ = o.drive(lc.context(runCtx), lc)
		},
		Recover: func(recovered any) {
			o.recordPanic(lc, recovered)
		},
	}
	if err := runner.Submit(task); err != nil {
		o.finish(ctx, lc, progress.StatusError, fmt.Errorf("schedule lifecycle: %w", err), "")
		return "", err
	}
	return lc.handle, nil
}

type lifecycleState struct {
	handle    string
	requestID string
	req       services.CallRequest
	logger    *slog.Logger
}

func (lc *lifecycleState) context(ctx context.Context) context.Context {
	ctx = services.WithCallHandle(ctx, lc.handle)
	return services.WithRequestID(ctx, lc.requestID)
}

func (o *Orchestrator) initiate(ctx context.Context, req services.CallRequest) (*lifecycleState, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if o.deps.Calls == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageInitiating, "start call", "call service is not configured", nil)
	}

	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok || requestID == "" {
		requestID = uuid.NewString()
	}
	stageCtx := services.WithStage(services.WithRequestID(ctx, requestID), stageInitiating)
	logger := logging.WithContext(stageCtx, o.logger)
	logger.Info("placing call",
		logging.String(logging.FieldEventType, "call_start"),
		logging.String("attendee", req.AttendeeName),
	)

	handle, err := o.deps.Calls.StartCall(stageCtx, req)
	if err != nil {
		logging.ErrorWithContext(logger, "call could not be placed", "call_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the vapi api key and phone number configuration"),
		)
		return nil, err
	}
	handle = strings.TrimSpace(handle)

	err = o.deps.Registry.Register(handle, progress.Progress{
		Status:             progress.StatusInitiated,
		AttendeeName:       req.AttendeeName,
		PhoneNumber:        req.PhoneNumber,
		MeetingDescription: req.MeetingDescription,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "call placed but progress could not be tracked", "progress_register_failed",
			logging.String(logging.FieldCallHandle, handle),
			logging.Error(err),
		)
		return nil, fmt.Errorf("register call %s: %w", handle, err)
	}

	lc := &lifecycleState{handle: handle, requestID: requestID, req: req}
	lc.logger = o.logger.With(
		logging.String(logging.FieldCallHandle, handle),
		logging.String(logging.FieldCorrelationID, requestID),
	)
	lc.logger.Info("call initiated",
		logging.String(logging.FieldEventType, "call_initiated"),
		logging.String("status", string(progress.StatusInitiated)),
		logging.String("attendee", req.AttendeeName),
	)
	return lc, nil
}

func (o *Orchestrator) recordPanic(lc *lifecycleState, recovered any) {
	err := fmt.Errorf("internal error: %v", recovered)
	lc.logger.Error("lifecycle crashed",
		logging.String(logging.FieldEventType, "lifecycle_panic"),
		logging.Alert("panic"),
		logging.Error(err),
	)
	o.finish(context.Background(), lc, progress.StatusError, err, "")
}
