// Package push sends threshold notifications ("you have worked 6 hours") to the browser
// push subscriptions of each user.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jw6ventures/timeclock/internal/logging"
	"github.com/jw6ventures/timeclock/internal/metrics"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

// Notifier checks every user's day so far against their thresholds. Each threshold is
// sent at most once per subscription and local day; the push log's unique key enforces it.
type Notifier struct {
	users    store.UserRepository
	settings store.SettingsRepository
	subs     store.PushSubscriptionRepository
	events   store.ClockEventRepository
	pushLog  store.PushLogRepository
	sender   Sender
	now      func() time.Time
}

func NewNotifier(st *store.Store, sender Sender) *Notifier {
	return &Notifier{
		users:    st.Users,
		settings: st.Settings,
		subs:     st.PushSubscriptions,
		events:   st.ClockEvents,
		pushLog:  st.PushLog,
		sender:   sender,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled, waiting at least one second between ticks.
func (n *Notifier) Run(ctx context.Context, interval time.Duration) error {
	logger := logging.FromContext(ctx)
	for {
		start := time.Now()
		if err := n.Tick(ctx); err != nil {
			logger.Error("push tick failed", slog.String("error", err.Error()))
		}

		wait := interval - time.Since(start)
		if wait < time.Second {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// Tick runs one pass over all users. A failing user is logged and skipped.
func (n *Notifier) Tick(ctx context.Context) error {
	users, err := n.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	now := n.now()
	logger := logging.FromContext(ctx)
	for i := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := n.notifyUser(ctx, &users[i], now); err != nil {
			logger.Warn("push notify user", slog.Int64("user_id", users[i].ID), slog.String("error", err.Error()))
		}
	}
	return nil
}

type due struct {
	kind      string
	threshold int
	total     int
}

func (n *Notifier) notifyUser(ctx context.Context, user *store.User, now time.Time) error {
	settings, err := n.settings.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	work := Thresholds(settings.PushWorkMinutes)
	breaks := Thresholds(settings.PushBreakMinutes)
	if len(work) == 0 && len(breaks) == 0 {
		return nil
	}

	subs, err := n.subs.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	loc, err := user.Location()
	if err != nil {
		return fmt.Errorf("user timezone: %w", err)
	}
	day := reporting.DateOf(now, loc)
	start, end := day.Bounds(loc)
	events, err := n.events.ListRange(ctx, user.ID, start, end)
	if err != nil {
		return err
	}
	summary := reporting.ComputeDaySummary(reporting.DayInput{Day: day, Location: loc, Events: events, Now: now})

	var pending []due
	for _, m := range work {
		if summary.WorkedMinutes >= m {
			pending = append(pending, due{KindWork, m, summary.WorkedMinutes})
		}
	}
	for _, m := range breaks {
		if summary.BreakMinutes >= m {
			pending = append(pending, due{KindBreak, m, summary.BreakMinutes})
		}
	}

	for _, sub := range subs {
		n.deliver(ctx, sub, day, pending)
	}
	return nil
}

// deliver sends each pending notification the log has not seen yet. A gone subscription
// is deleted and skipped for the rest of the tick.
func (n *Notifier) deliver(ctx context.Context, sub store.PushSubscription, day reporting.Date, pending []due) {
	logger := logging.FromContext(ctx).With(slog.Int64("subscription_id", sub.ID))
	for _, d := range pending {
		fresh, err := n.pushLog.Record(ctx, sub.ID, day, d.kind, d.threshold)
		if err != nil {
			logger.Warn("record push", slog.String("error", err.Error()))
			continue
		}
		if !fresh {
			continue
		}

		err = n.sender.Send(ctx, sub, ThresholdMessage(d.kind, d.total, sub.Lang))
		switch {
		case errors.Is(err, ErrGone):
			metrics.RecordPushNotification(d.kind, "gone")
			logger.Info("push subscription gone, deleting")
			if err := n.subs.Delete(ctx, sub.ID); err != nil {
				logger.Warn("delete push subscription", slog.String("error", err.Error()))
			}
			return
		case err != nil:
			metrics.RecordPushNotification(d.kind, "failed")
			logger.Warn("send push", slog.String("kind", d.kind), slog.Int("threshold", d.threshold), slog.String("error", err.Error()))
		default:
			metrics.RecordPushNotification(d.kind, "sent")
			logger.Debug("push sent", slog.String("kind", d.kind), slog.Int("threshold", d.threshold))
		}
	}
}
