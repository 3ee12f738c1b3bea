package orbit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/core/scheduler"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
)

const (
	defaultCascadeMaxAttempts  = 10
	defaultCascadeRetryBackoff = 30 * time.Second
)

var (
	_ scheduler.Source[*entity.CascadePayment]    = (*CascadeWorker)(nil)
	_ scheduler.Processor[*entity.CascadePayment] = (*CascadeWorker)(nil)
)

// CascadeWorker executes repurchase payments persisted by orbit completions.
// It is both the scheduler's source (pending payments that are due) and its
// processor (run each as an ordinary distribution). Delivery is at least
// once: the payment row flips out of pending atomically with its
// distribution, so a redelivered payment is detected and skipped.
type CascadeWorker struct {
	processor *Processor

	maxAttempts  int32
	retryBackoff time.Duration
}

func NewCascadeWorker(processor *Processor, maxAttempts int32, retryBackoff time.Duration) *CascadeWorker {
	if maxAttempts <= 0 {
		maxAttempts = defaultCascadeMaxAttempts
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultCascadeRetryBackoff
	}
	return &CascadeWorker{
		processor:    processor,
		maxAttempts:  maxAttempts,
		retryBackoff: retryBackoff,
	}
}

func (w *CascadeWorker) Name() string {
	return "orbit-cascade"
}

func (w *CascadeWorker) Shutdown(ctx context.Context) error {
	return w.processor.Shutdown(ctx)
}

// PollDue implements scheduler.Source.
func (w *CascadeWorker) PollDue(ctx context.Context, limit int) ([]*entity.CascadePayment, error) {
	payments, err := w.processor.orbitDg.GetDueCascadePayments(ctx, time.Now(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get due cascade payments")
	}
	return payments, nil
}

// Process implements scheduler.Processor. A failing distribution never rolls
// back the orbit completion that spawned it: the payment is re-scheduled
// with backoff and, past the attempt cap, parked as failed for operators.
func (w *CascadeWorker) Process(ctx context.Context, payment *entity.CascadePayment) error {
	ctx = logger.WithContext(ctx,
		slogx.Int64("cascadeId", payment.ID),
		slogx.Int64("payerId", payment.PayerID),
	)

	err := w.processor.DistributeCascade(ctx, payment.ID)
	if err == nil {
		return nil
	}

	logger.ErrorContext(ctx, "Cascade distribution failed",
		slogx.Error(err),
		slogx.Int64("paymentUSD", payment.PaymentUSD),
		slogx.Int("attempts", int(payment.Attempts)+1),
	)
	if recordErr := w.recordFailure(ctx, payment.ID, err); recordErr != nil {
		return errors.Wrap(recordErr, "failed to record cascade failure")
	}
	// the failure is recorded on the payment row; do not bubble it so the
	// rest of the batch keeps processing
	return nil
}

// recordFailure advances the payment's attempt counter in its own
// transaction and schedules the next retry, or parks the payment as failed
// once the attempt cap is reached.
func (w *CascadeWorker) recordFailure(ctx context.Context, paymentID int64, cause error) error {
	dgTx, err := w.processor.orbitDg.BeginOrbitTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := dgTx.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to rollback transaction", slogx.Error(err))
		}
	}()

	payment, err := dgTx.GetCascadePayment(ctx, paymentID)
	if err != nil {
		return errors.Wrap(err, "failed to get cascade payment")
	}
	if payment.Status != entity.CascadeStatusPending {
		return nil
	}

	payment.Attempts++
	payment.LastError = cause.Error()
	if payment.Attempts >= w.maxAttempts {
		payment.Status = entity.CascadeStatusFailed
		logger.ErrorContext(ctx, "Cascade payment exceeded retry cap, parking as failed",
			slogx.Int("attempts", int(payment.Attempts)),
		)
	} else {
		payment.NextAttemptAt = time.Now().Add(w.retryBackoff * time.Duration(payment.Attempts))
	}

	if err := dgTx.UpdateCascadePayment(ctx, payment); err != nil {
		return errors.Wrap(err, "failed to update cascade payment")
	}
	return errors.Wrap(dgTx.Commit(ctx), "failed to commit transaction")
}

// DistributeCascade runs a pending cascade payment as a normal distribution.
// The status flip to done commits atomically with the distribution itself,
// which makes redelivery (crash between commit and acknowledge, concurrent
// workers) detectable: a payment no longer pending is skipped untouched.
func (p *Processor) DistributeCascade(ctx context.Context, paymentID int64) error {
	dgTx, err := p.orbitDg.BeginOrbitTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := dgTx.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to rollback transaction", slogx.Error(err))
		}
	}()

	payment, err := dgTx.GetCascadePayment(ctx, paymentID)
	if err != nil {
		return errors.Wrap(err, "failed to get cascade payment")
	}
	if payment.Status != entity.CascadeStatusPending {
		logger.WarnContext(ctx, "Cascade payment already settled, skipping",
			slogx.String("status", string(payment.Status)),
		)
		return nil
	}

	receipt, err := p.distributeTx(ctx, dgTx, payment.PayerID, payment.PaymentUSD, payment.PaymentRAMA)
	if err != nil {
		return errors.Wrap(err, "cascade distribution failed")
	}

	now := time.Now()
	payment.Status = entity.CascadeStatusDone
	payment.CompletedAt = &now
	if err := dgTx.UpdateCascadePayment(ctx, payment); err != nil {
		return errors.Wrap(err, "failed to update cascade payment")
	}

	if err := dgTx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	logger.InfoContext(ctx, "Cascade payment distributed",
		slogx.Int("levels", len(receipt.Entries)),
		slogx.Int("cascades", len(receipt.CascadeIDs)),
	)
	return nil
}
