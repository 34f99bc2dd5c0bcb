package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"callprep/internal/logging"
	"callprep/internal/progress"
	"callprep/internal/report"
	"callprep/internal/services"
	"callprep/internal/services/vapi"
	"callprep/internal/store"
	"callprep/internal/summary"
)

func (o *Orchestrator) drive(ctx context.Context, lc *lifecycleState) (Outcome, error) {
	started := time.Now()

	final, err := o.poll(services.WithStage(ctx, stagePolling), lc)
	if err != nil {
		return o.finish(ctx, lc, failureStatus(err), err, "")
	}
	lc.logger.Info("call ended",
		logging.String(logging.FieldStage, stagePolling),
		logging.String(logging.FieldEventType, "call_ended"),
		logging.String("call_status", final.Status),
		logging.Duration("elapsed", time.Since(started)),
	)

	transcript, ok, err := o.deps.Calls.TranscriptFromPayload(services.WithStage(ctx, stageReporting), final.Raw)
	if err != nil {
		return o.finish(ctx, lc, failureStatus(err), err, "")
	}
	if !ok || strings.TrimSpace(transcript) == "" {
		err := services.Wrap(services.ErrDataUnavailable, stageReporting, "get transcript", "transcript unavailable", nil)
		return o.finish(ctx, lc, progress.StatusFailed, err, "")
	}

	if o.deps.Summarizer == nil {
		err := services.Wrap(services.ErrConfiguration, stageSummarizing, "summarize", "summarizer is not configured", nil)
		return o.finish(ctx, lc, progress.StatusError, err, "")
	}
	result, err := o.deps.Summarizer.Summarize(services.WithStage(ctx, stageSummarizing), transcript, lc.req.AttendeeName, lc.req.MeetingDescription)
	if err != nil {
		return o.finish(ctx, lc, progress.StatusError, fmt.Errorf("summarize transcript: %w", err), "")
	}

	callTime := o.opts.Now()
	content := summary.FormatReport(summary.ReportInput{
		AttendeeName:       lc.req.AttendeeName,
		PhoneNumber:        lc.req.PhoneNumber,
		MeetingDescription: lc.req.MeetingDescription,
		Timestamp:          callTime,
		Transcript:         transcript,
		Summary:            result.Summary,
	})

	persistCtx := services.WithStage(ctx, stagePersisting)
	if o.deps.Writer == nil || o.deps.Store == nil {
		err := services.Wrap(services.ErrPersistence, stagePersisting, "save report", "report writer or store is not configured", nil)
		return o.finishPersistence(ctx, lc, result.Summary, err)
	}
	path, err := o.deps.Writer.Write(persistCtx, report.File{
		AttendeeName: lc.req.AttendeeName,
		Timestamp:    callTime,
		Content:      content,
	})
	if err != nil {
		return o.finishPersistence(ctx, lc, result.Summary, err)
	}
	id, err := o.deps.Store.Create(persistCtx, &store.Report{
		Handle:             lc.handle,
		AttendeeName:       lc.req.AttendeeName,
		PhoneNumber:        lc.req.PhoneNumber,
		MeetingDescription: lc.req.MeetingDescription,
		CallTimestamp:      callTime,
		CallStatus:         final.Status,
		Transcript:         transcript,
		Summary:            result.Summary,
		ReportFilePath:     path,
	})
	if err != nil {
		if rmErr := o.deps.Writer.Remove(persistCtx, path); rmErr != nil {
			logging.WarnWithContext(lc.logger, "orphaned report file left behind", "report_cleanup_failed",
				logging.Error(rmErr),
				logging.String("report_path", path),
				logging.String(logging.FieldErrorHint, "delete the file by hand; it has no history row"),
				logging.String(logging.FieldImpact, "report file exists without a stored record"),
			)
		}
		return o.finishPersistence(ctx, lc, result.Summary, err)
	}

	if _, err := o.deps.Registry.Update(lc.handle, func(p *progress.Progress) {
		p.Status = progress.StatusCompleted
		p.CallStatus = final.Status
		p.ReportID = &id
		p.ReportPath = path
		p.Summary = result.Summary
	}); err != nil {
		o.warnProgress(lc, err)
	}
	lc.logger.Info("call report saved",
		logging.String(logging.FieldStage, stagePersisting),
		logging.String(logging.FieldEventType, "call_completed"),
		logging.String("status", string(progress.StatusCompleted)),
		logging.Int64("report_id", id),
		logging.String("report_path", path),
		logging.Duration("elapsed", time.Since(started)),
	)
	if err := o.deps.Notifier.NotifyCallCompleted(ctx, lc.req.AttendeeName, path); err != nil {
		o.logNotifyFailure(lc, err)
	}

	return Outcome{
		Handle:     lc.handle,
		Status:     progress.StatusCompleted,
		CallStatus: final.Status,
		Transcript: transcript,
		Summary:    result.Summary,
		ReportID:   id,
		ReportPath: path,
	}, nil
}

// poll waits for the call to reach a terminal remote status. The returned
// status carries the payload of the final poll.
func (o *Orchestrator) poll(ctx context.Context, lc *lifecycleState) (vapi.CallStatus, error) {
	if _, err := o.deps.Registry.Update(lc.handle, func(p *progress.Progress) {
		p.Status = progress.StatusInProgress
	}); err != nil {
		o.warnProgress(lc, err)
	}

	deadline := time.Now().Add(o.opts.PollTimeout)
	lastStatus := ""
	for {
		status, err := o.deps.Calls.GetStatus(ctx, lc.handle)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return vapi.CallStatus{}, fmt.Errorf("polling call %s: %w", lc.handle, ctxErr)
			}
			return vapi.CallStatus{}, services.Wrap(services.ErrCallFailed, stagePolling, "get call status", "", err)
		}
		remote := strings.TrimSpace(status.Status)
		if remote != lastStatus {
			lastStatus = remote
			if _, err := o.deps.Registry.Update(lc.handle, func(p *progress.Progress) {
				p.CallStatus = remote
			}); err != nil {
				o.warnProgress(lc, err)
			}
			lc.logger.Debug("call status changed",
				logging.String(logging.FieldStage, stagePolling),
				logging.String("call_status", remote),
			)
		}

		if _, ok := successStatuses[remote]; ok {
			return status, nil
		}
		if _, ok := failureStatuses[remote]; ok {
			detail := "call " + remote
			if reason := strings.TrimSpace(status.EndedReason); reason != "" {
				detail += " (" + reason + ")"
			}
			return status, services.Wrap(services.ErrCallFailed, stagePolling, "", detail, nil)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastStatus == "" {
				lastStatus = "unknown"
			}
			msg := fmt.Sprintf("timeout after %s waiting for call to end (last status %q)", o.opts.PollTimeout, lastStatus)
			return status, services.Wrap(services.ErrTimeout, stagePolling, "", msg, nil)
		}
		wait := o.opts.PollInterval
		if remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return vapi.CallStatus{}, fmt.Errorf("polling call %s: %w", lc.handle, ctx.Err())
		case <-timer.C:
		}
	}
}

func failureStatus(err error) progress.Status {
	return progress.Status(services.FailureStatus(err))
}

func (o *Orchestrator) finishPersistence(ctx context.Context, lc *lifecycleState, summaryText string, err error) (Outcome, error) {
	if !errors.Is(err, services.ErrPersistence) {
		err = services.Wrap(services.ErrPersistence, stagePersisting, "save report", "", err)
	}
	outcome, _ := o.finish(ctx, lc, progress.StatusError, err, summaryText)
	return outcome, &PersistenceError{Summary: summaryText, Err: err}
}

// finish records a failed or errored terminal entry and returns the matching
// outcome together with err.
func (o *Orchestrator) finish(ctx context.Context, lc *lifecycleState, status progress.Status, err error, summaryText string) (Outcome, error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = string(status)
	}
	var callStatus string
	updated, updateErr := o.deps.Registry.Update(lc.handle, func(p *progress.Progress) {
		p.Status = status
		p.ErrorMessage = message
		p.ReportID = nil
		if summaryText != "" {
			p.Summary = summaryText
		}
	})
	if updateErr != nil {
		o.warnProgress(lc, updateErr)
	}
	callStatus = updated.CallStatus

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "call_"+string(status)),
		logging.String("status", string(status)),
		logging.String("call_status", callStatus),
		logging.Error(err),
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldStage, stage))
	}
	if summaryText != "" {
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "summary is kept in the progress entry; copy it before the daemon restarts"),
			logging.String(logging.FieldImpact, "report was not saved"),
		)
		logging.ErrorWithContext(lc.logger, "call report could not be saved", "call_"+string(status), attrs...)
	} else if status == progress.StatusError {
		logging.ErrorWithContext(lc.logger, "call lifecycle errored", "call_"+string(status), attrs...)
	} else {
		logging.WarnWithContext(lc.logger, "call did not complete", "call_"+string(status),
			append(attrs,
				logging.String(logging.FieldErrorHint, "retry the call later"),
				logging.String(logging.FieldImpact, "no report was created"),
			)...)
	}

	notifyCtx := ctx
	if ctx.Err() != nil {
		notifyCtx = context.WithoutCancel(ctx)
	}
	if notifyErr := o.deps.Notifier.NotifyCallFailed(notifyCtx, lc.req.AttendeeName, message); notifyErr != nil {
		o.logNotifyFailure(lc, notifyErr)
	}

	return Outcome{
		Handle:       lc.handle,
		Status:       status,
		CallStatus:   callStatus,
		Summary:      summaryText,
		ErrorMessage: message,
	}, err
}

func (o *Orchestrator) warnProgress(lc *lifecycleState, err error) {
	logging.WarnWithContext(lc.logger, "progress update rejected", "progress_update_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "entry may have been evicted or already finished"),
		logging.String(logging.FieldImpact, "observers may see a stale status"),
	)
}

func (o *Orchestrator) logNotifyFailure(lc *lifecycleState, err error) {
	if errors.Is(err, context.Canceled) {
		lc.logger.Debug("shutting down, notification skipped")
		return
	}
	lc.logger.Debug("call notification failed", logging.Error(err))
}
