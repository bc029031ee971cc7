package dca

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/etnz/folio"
	"github.com/etnz/folio/alert"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/market"
)

// Recorder records transactions, like tracker.Service.
type Recorder interface {
	Record(ctx context.Context, tx folio.Transaction) (*folio.Holding, error)
}

// Runner executes the due plans of a Book, on demand with RunOnce or
// periodically once started.
type Runner struct {
	book      *Book
	recorder  Recorder
	quoter    market.Quoter
	notify    func(alert.Notification)
	scheduler gocron.Scheduler
	now       func() time.Time
}

// NewRunner returns a stopped runner. notify may be nil.
func NewRunner(book *Book, recorder Recorder, quoter market.Quoter, notify func(alert.Notification)) *Runner {
	if notify == nil {
		notify = func(alert.Notification) {}
	}
	return &Runner{book: book, recorder: recorder, quoter: quoter, notify: notify, now: time.Now}
}

// RunOnce executes the plans due on day on, and moves them to their next
// run. A plan that fails is left due and reported in the returned error;
// the other plans still run.
func (r *Runner) RunOnce(ctx context.Context, on date.Date) ([]folio.Transaction, error) {
	var (
		done []folio.Transaction
		errs []error
	)
	for _, p := range Due(r.book.List(), on) {
		tx, err := r.run(ctx, p, on)
		if err != nil {
			slog.Error("dca plan failed", slog.String("plan", p.ID), slog.String("symbol", p.Symbol), slog.String("err", err.Error()))
			errs = append(errs, fmt.Errorf("plan %s on %s: %w", p.ID, p.Symbol, err))
			continue
		}
		done = append(done, tx)
		r.notify(alert.PlanDue{PlanID: p.ID, Symbol: p.Symbol, On: on})
	}
	return done, errors.Join(errs...)
}

func (r *Runner) run(ctx context.Context, p Plan, on date.Date) (folio.Transaction, error) {
	q, err := r.quoter.Quote(ctx, p.Symbol)
	if err != nil {
		return folio.Transaction{}, err
	}
	tx, err := Order(p, q, r.now())
	if err != nil {
		return folio.Transaction{}, err
	}
	if _, err := r.recorder.Record(ctx, tx); err != nil {
		return folio.Transaction{}, err
	}
	// The order is recorded: the plan moves on even if the book cannot be
	// saved, Update has already advanced it in memory.
	p.NextRun = Next(p.Frequency, on)
	if err := r.book.Update(p); err != nil {
		slog.Error("saving dca plan", slog.String("plan", p.ID), slog.String("err", err.Error()))
	}
	slog.Info("dca plan executed", slog.String("plan", p.ID), slog.String("symbol", p.Symbol), slog.String("quantity", tx.Quantity.String()), slog.String("next", p.NextRun.String()))
	return tx, nil
}

// Start runs the due plans every interval, starting now, until Stop.
func (r *Runner) Start(interval time.Duration) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.taskWithRecover(func(ctx context.Context) error {
			_, err := r.RunOnce(ctx, date.Of(r.now()))
			return err
		}, "dca")),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling dca job: %w", err)
	}
	r.scheduler = s
	s.Start()
	return nil
}

// Stop waits for a running job and stops the scheduler.
func (r *Runner) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}

func (r *Runner) taskWithRecover(fn func(ctx context.Context) error, jobName string) func(ctx context.Context) {
	return func(ctx context.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error(
					"Panic recovered in scheduler job",
					slog.String("jobName", jobName),
					slog.Any("panic", rec),
					slog.String("stacktrace", string(debug.Stack())),
				)
			}
		}()

		slog.Debug("job start", slog.String("jobName", jobName))
		if err := fn(ctx); err != nil {
			slog.Error("job failed", slog.String("jobName", jobName), slog.Any("error", err))
		} else {
			slog.Debug("job completed", slog.String("jobName", jobName))
		}
	}
}
