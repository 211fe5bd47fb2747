package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/Togather-Foundation/contests/internal/email"
)

// AlertFunc is invoked when a job fails or panics.
type AlertFunc func(ctx context.Context, job *rivertype.JobRow, err error)

// AlertingErrorHandler logs and forwards job failures for alerting.
type AlertingErrorHandler struct {
	Logger *slog.Logger
	Notify AlertFunc
}

func NewAlertingErrorHandler(logger *slog.Logger, notify AlertFunc) *AlertingErrorHandler {
	return &AlertingErrorHandler{
		Logger: logger,
		Notify: notify,
	}
}

func (h *AlertingErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	if h.Logger != nil {
		h.Logger.Error("job failed", "job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "error", err)
	}
	if h.Notify != nil {
		h.Notify(ctx, job, err)
	}
	return nil
}

func (h *AlertingErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	panicErr := fmt.Errorf("panic: %v", panicVal)
	if h.Logger != nil {
		h.Logger.Error("job panicked", "job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "error", panicErr, "trace", trace)
	}
	if h.Notify != nil {
		h.Notify(ctx, job, panicErr)
	}
	return nil
}

// EmailAlerts mails each failure through n. Delivery errors are logged and
// dropped. It returns nil when n cannot deliver.
func EmailAlerts(n *email.Notifier, logger *slog.Logger) AlertFunc {
	if n == nil || !n.Enabled() {
		return nil
	}
	return func(ctx context.Context, job *rivertype.JobRow, err error) {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()

		alert := email.Alert{
			Title:      fmt.Sprintf("%s job failed", job.Kind),
			Kind:       job.Kind,
			JobID:      job.ID,
			Attempt:    job.Attempt,
			Error:      err.Error(),
			OccurredAt: time.Now().UTC(),
		}
		if sendErr := n.SendAlert(sendCtx, alert); sendErr != nil && logger != nil {
			logger.Warn("alert email failed", "kind", job.Kind, "job_id", job.ID, "error", sendErr)
		}
	}
}
