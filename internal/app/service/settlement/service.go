package settlement

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/creditd/internal/models"
	"github.com/fatflowers/creditd/internal/platform/bus"
	"github.com/fatflowers/creditd/internal/platform/cache"
	cfgpkg "github.com/fatflowers/creditd/pkg/config"
	"github.com/fatflowers/creditd/pkg/metrics"
	"github.com/fatflowers/creditd/pkg/tool"
)

// JobName tags logs, events and cache keys produced by this job.
const JobName = "creditRollover"

const (
	processedMarkerPrefix = JobName + ":processed:"
	runLockPrefix         = JobName + ":run:"

	// LastRunKey holds the best-effort status record of the latest attempt.
	LastRunKey = "job:" + JobName + ":lastRun"
)

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// RunRecord summarizes one run attempt. Non-authoritative: it exists for
// operational monitoring only and a failed write never fails the job.
type RunRecord struct {
	Status         RunStatus `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	ProcessedUsers int       `json:"processed_users"`
	ErrorCount     int       `json:"error_count"`
	Month          string    `json:"month"`
	Error          string    `json:"error,omitempty"`
}

// Service runs the monthly credit donation/rollover settlement.
type Service struct {
	cfg   *cfgpkg.Config
	log   *zap.SugaredLogger
	store UserStore
	cache cache.Store
	bus   bus.Publisher

	now   func() time.Time
	sleep func(time.Duration)
}

func NewService(cfg *cfgpkg.Config, log *zap.SugaredLogger, store UserStore, cache cache.Store, bus bus.Publisher) *Service {
	return &Service{
		cfg:   cfg,
		log:   log,
		store: store,
		cache: cache,
		bus:   bus,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// MonthKey renders the UTC calendar month of ts as "YYYY-MM".
func MonthKey(ts time.Time) string {
	return ts.UTC().Format("2006-01")
}

func processedMarkerKey(month string) string { return processedMarkerPrefix + month }
func runLockKey(month string) string         { return runLockPrefix + month }

// Run settles the current UTC month for every eligible user. Safe to invoke
// more often than monthly, and concurrently: a completed month is a no-op
// via the processed marker and overlapping runs are fenced by a run lock.
// Nothing escapes Run; all failures end up in logs and the run record.
func (s *Service) Run(ctx context.Context) {
	month := MonthKey(s.now())
	log := s.log.With("job", JobName, "month", month)

	if _, done, err := s.cache.Get(ctx, processedMarkerKey(month)); err != nil {
		// Without the marker lookup a retry could double-bill, so bail out.
		log.Errorw("idempotency marker lookup failed, aborting run", "err", err)
		s.finishRun(ctx, log, RunRecord{
			Status: RunStatusFailed, Timestamp: s.now(), Month: month, Error: err.Error(),
		})
		return
	} else if done {
		log.Infow("month already processed, nothing to do")
		return
	}

	// The marker check alone is check-then-act; the lock closes the window
	// where two scheduler triggers race past it at a month boundary.
	won, err := s.cache.SetNX(ctx, runLockKey(month), tool.GenerateUUIDV7(), s.cfg.RunLockTTL())
	if err != nil {
		log.Errorw("run lock acquisition failed, aborting run", "err", err)
		s.finishRun(ctx, log, RunRecord{
			Status: RunStatusFailed, Timestamp: s.now(), Month: month, Error: err.Error(),
		})
		return
	}
	if !won {
		log.Warnw("another settlement run holds the lock, skipping")
		return
	}
	defer func() {
		if err := s.cache.Del(ctx, runLockKey(month)); err != nil {
			log.Warnw("failed to release run lock", "err", err)
		}
	}()

	var processed, errCount int
	streamErr := s.store.StreamEligibleUsers(ctx, s.cfg.Job.PageSize, func(users []*models.User) error {
		for _, u := range users {
			if s.settleUser(ctx, u, month) == outcomeFailed {
				errCount++
				metrics.JobUserErrors.Inc()
				continue
			}
			processed++
		}
		return nil
	})

	rec := RunRecord{Timestamp: s.now(), Month: month, ProcessedUsers: processed, ErrorCount: errCount}
	if streamErr != nil {
		// Enumeration failure is fatal to the run: the month stays unmarked
		// so the next invocation retries it in full.
		log.Errorw("user enumeration failed, month left unmarked", "err", streamErr)
		rec.Status = RunStatusFailed
		rec.Error = streamErr.Error()
		s.finishRun(ctx, log, rec)
		return
	}

	// Marked even when some users failed: one permanently-failing user must
	// not block the month. Per-user due-checks keep re-runs safe regardless.
	if err := s.cache.Set(ctx, processedMarkerKey(month), s.now().UTC().Format(time.RFC3339), s.cfg.MarkerTTL()); err != nil {
		log.Errorw("failed to write processed marker", "err", err)
	}

	switch {
	case errCount == 0:
		rec.Status = RunStatusSuccess
	case processed > 0:
		rec.Status = RunStatusPartial
	default:
		rec.Status = RunStatusFailed
	}
	s.finishRun(ctx, log, rec)
}

// finishRun writes the best-effort run record and bumps run metrics.
func (s *Service) finishRun(ctx context.Context, log *zap.SugaredLogger, rec RunRecord) {
	data, err := json.Marshal(rec)
	if err == nil {
		err = s.cache.Set(ctx, LastRunKey, string(data), 0)
	}
	if err != nil {
		log.Warnw("failed to write run status record", "err", err)
	}

	metrics.JobRunsTotal.WithLabelValues(string(rec.Status)).Inc()
	metrics.JobUsersProcessed.Add(float64(rec.ProcessedUsers))
	log.Infow("credit settlement run finished",
		"status", rec.Status,
		"processed_users", rec.ProcessedUsers,
		"error_count", rec.ErrorCount,
	)
}
