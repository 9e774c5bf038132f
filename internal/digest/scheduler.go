// Package digest schedules and compiles the weekly mailing: every Sunday
// at 15:00 local time, pending links are grouped per contact and handed to
// the outbound notifier. Delivery itself belongs to the email backend.
package digest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/contacts"
	"github.com/joshnesbit/quietsend/internal/links"
	"github.com/joshnesbit/quietsend/internal/model"
	"github.com/joshnesbit/quietsend/internal/notify"
)

const (
	digestHour = 15
	period     = 7 * 24 * time.Hour
)

// Scheduler registers the weekly firing and runs the compile on each one.
type Scheduler struct {
	queue    *links.Queue
	contacts *contacts.Registry
	notifier notify.Notifier
	bus      *bus.Bus
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	nextRun time.Time
	cancel  context.CancelFunc
}

// NewScheduler creates an unscheduled scheduler.
func NewScheduler(q *links.Queue, r *contacts.Registry, n notify.Notifier, b *bus.Bus, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		queue:    q,
		contacts: r,
		notifier: n,
		bus:      b,
		logger:   logger,
		now:      time.Now,
	}
}

// NextRun reports when the next digest fires. Zero until Start.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

// Start moves the scheduler from unscheduled to scheduled: one registration
// per daemon start, anchored at the next Sunday 15:00 with a 7-day period.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	first := nextSundayAfternoon(s.now())
	s.mu.Lock()
	s.nextRun = first
	s.mu.Unlock()
	s.logger.Info("weekly digest scheduled", zap.Time("first_run", first))
	go s.loop(ctx, first)
}

// Stop cancels the schedule.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) loop(ctx context.Context, first time.Time) {
	timer := time.NewTimer(time.Until(first))
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return
	}
	s.fire(ctx)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.fire(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	s.nextRun = nextSundayAfternoon(now)
	s.mu.Unlock()

	s.bus.Publish(bus.Event{Kind: bus.KindDigestDue, Timestamp: now})
	if err := s.Run(ctx); err != nil {
		s.logger.Error("digest run failed", zap.Error(err))
	}
}

// Run compiles the digest immediately: groups undelivered links by contact,
// hands one digest per confirmed contact to the notifier, and stamps the
// handed-off entries as delivered. Entries for unconfirmed contacts stay
// queued; a failed hand-off leaves its entries pending for next week.
func (s *Scheduler) Run(ctx context.Context) error {
	pending, err := s.queue.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		s.logger.Info("digest due, nothing queued")
		return nil
	}

	var order []string
	groups := make(map[string][]model.SavedLink)
	for _, entry := range pending {
		if _, seen := groups[entry.ContactID]; !seen {
			order = append(order, entry.ContactID)
		}
		groups[entry.ContactID] = append(groups[entry.ContactID], entry)
	}

	var delivered []string
	for _, cid := range order {
		entries := groups[cid]
		c, err := s.contacts.Get(ctx, cid)
		if err != nil {
			return err
		}
		if c == nil {
			// Orphans from data written before delete-blocking existed.
			s.logger.Warn("skipping links for missing contact",
				zap.String("contact_id", cid),
				zap.Int("links", len(entries)))
			continue
		}
		if !c.Confirmed {
			s.logger.Info("skipping digest for unconfirmed contact",
				zap.String("contact_id", cid),
				zap.Int("links", len(entries)))
			continue
		}

		copyToSelf := false
		for _, e := range entries {
			if e.SendCopyToSelf {
				copyToSelf = true
				break
			}
		}
		evt := notify.NewEvent(notify.KindDigestCompiled, notify.Digest{
			Contact:    *c,
			Links:      entries,
			CopyToSelf: copyToSelf,
		})
		if err := s.notifier.Notify(ctx, evt); err != nil {
			s.logger.Error("digest hand-off failed",
				zap.Error(err),
				zap.String("contact_id", cid))
			continue
		}

		for _, e := range entries {
			delivered = append(delivered, e.ID)
		}
		s.logger.Info("digest compiled",
			zap.String("contact_id", cid),
			zap.Int("links", len(entries)),
			zap.Bool("copy_to_self", copyToSelf))
		s.bus.Publish(bus.Event{Kind: bus.KindDigestSent, Timestamp: s.now(), Payload: cid})
	}

	if len(delivered) > 0 {
		if err := s.queue.MarkDelivered(ctx, delivered, s.now()); err != nil {
			return err
		}
	}
	return nil
}

// nextSundayAfternoon returns the next Sunday 15:00 in t's location. A
// Sunday before 15:00 fires the same day; on or after 15:00 it rolls to the
// following week, so the first occurrence is never in the past.
func nextSundayAfternoon(t time.Time) time.Time {
	run := time.Date(t.Year(), t.Month(), t.Day(), digestHour, 0, 0, 0, t.Location())
	run = run.AddDate(0, 0, int((time.Sunday-t.Weekday()+7)%7))
	if !run.After(t) {
		run = run.AddDate(0, 0, 7)
	}
	return run
}
