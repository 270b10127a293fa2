package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"univer-backend/services/notify/push"
	"univer-backend/services/univer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/notify")

// Portal is the slice of the student API the scheduler polls.
// student.Service implements it.
type Portal interface {
	Attestation(ctx context.Context, cred univer.Credential, lang string) ([]univer.Attestation, error)
	Schedule(ctx context.Context, cred univer.Credential, lang string) (univer.Schedule, error)
	Exams(ctx context.Context, cred univer.Credential, lang string) ([]univer.Exam, error)
}

type SchedulerOptions struct {
	// LessonInterval is the reminder poll period. Defaults to 1m.
	LessonInterval time.Duration
	// GradeInterval is the grade diff poll period. Defaults to 30m.
	GradeInterval time.Duration
	// DigestHour is the local hour the next-day digest goes out.
	// Defaults to 22.
	DigestHour int
	// LessonLead is how far before a lesson the reminder fires.
	// Defaults to 10m; the match window is LessonLead ± half the
	// lesson poll period.
	LessonLead time.Duration

	Clock Clock
}

func (o *SchedulerOptions) fillDefaults() {
	if o.LessonInterval == 0 {
		o.LessonInterval = time.Minute
	}
	if o.GradeInterval == 0 {
		o.GradeInterval = time.Minute * 30
	}
	if o.DigestHour == 0 {
		o.DigestHour = 22
	}
	if o.LessonLead == 0 {
		o.LessonLead = time.Minute * 10
	}
	if o.Clock == nil {
		o.Clock = portalClock{}
	}
}

// Scheduler owns the three notification loops: lesson reminders, grade
// diffs, and the nightly digest. One subscriber failing never stops a
// cycle; a permanently dead push endpoint drops its subscriber.
type Scheduler struct {
	store   *Store
	sender  push.Sender
	portals map[string]Portal
	opts    SchedulerOptions

	mu sync.Mutex
	// remindedLessons dedups lesson reminders: a lesson in the match
	// window on several consecutive ticks still notifies once.
	remindedLessons map[string]time.Time
}

func NewScheduler(store *Store, sender push.Sender, portals map[string]Portal, opts SchedulerOptions) *Scheduler {
	opts.fillDefaults()
	return &Scheduler{
		store:           store,
		sender:          sender,
		portals:         portals,
		opts:            opts,
		remindedLessons: make(map[string]time.Time),
	}
}

// Start launches the three loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.lessonLoop(ctx)
	go s.gradeLoop(ctx)
	go s.digestLoop(ctx)
}

func (s *Scheduler) lessonLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.LessonInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunLessonCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) gradeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.GradeInterval)
	defer ticker.Stop()

	// first grade pass runs immediately so fresh subscribers get a
	// baseline state without waiting half an hour
	s.RunGradeCycle(ctx)
	for {
		select {
		case <-ticker.C:
			s.RunGradeCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) digestLoop(ctx context.Context) {
	for {
		// the extra minute keeps clock drift from landing the wakeup
		// just before the target hour and sending twice
		wait := s.untilNextDigest() + time.Minute
		select {
		case <-time.After(wait):
			s.RunDigestCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) untilNextDigest() time.Duration {
	now := s.opts.Clock.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.opts.DigestHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// forEachSubscriber runs fn per subscriber, logging failures and
// dropping subscribers whose push endpoint is permanently gone.
func (s *Scheduler) forEachSubscriber(ctx context.Context, cycle string, fn func(ctx context.Context, sub Subscriber) error) {
	subscribers, err := s.store.Subscribers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list subscribers", "cycle", cycle, "err", err)
		return
	}

	for _, sub := range subscribers {
		err := fn(ctx, sub)
		if err == nil {
			continue
		}
		if errors.Is(err, push.ErrEndpointGone) {
			slog.InfoContext(ctx, "dropping subscriber with dead endpoint", "subscriber", sub.ID)
			if err := s.store.Remove(ctx, sub.ID); err != nil {
				slog.WarnContext(ctx, "failed to drop subscriber", "subscriber", sub.ID, "err", err)
			}
			continue
		}
		slog.WarnContext(ctx, "subscriber cycle failed", "cycle", cycle, "subscriber", sub.ID, "err", err)
	}
}

func (s *Scheduler) portal(sub Subscriber) (Portal, error) {
	portal, ok := s.portals[sub.Institution]
	if !ok {
		return nil, fmt.Errorf("no portal for institution %q", sub.Institution)
	}
	return portal, nil
}

// RunGradeCycle polls every subscriber's reconciled grades and pushes
// at most one notification per subject: the highest-priority component
// that changed since the stored state. New state is persisted whether
// or not anything was announced.
func (s *Scheduler) RunGradeCycle(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "RunGradeCycle")
	defer span.End()

	s.forEachSubscriber(ctx, "grades", func(ctx context.Context, sub Subscriber) error {
		portal, err := s.portal(sub)
		if err != nil {
			return err
		}

		records, err := portal.Attestation(ctx, sub.Credential, sub.Lang)
		if err != nil {
			return err
		}
		state, err := s.store.GradeState(ctx, sub.ID)
		if err != nil {
			return err
		}

		var sendErr error
		for _, record := range records {
			previous, seen := state[record.Subject]
			if seen && sendErr == nil {
				if changed, ok := firstChangedMark(previous, record.Marks); ok {
					sendErr = s.send(ctx, sub, GradeNotification(sub.Lang, record.Subject, changed))
				}
			}
			// state moves forward even when delivery failed, otherwise
			// a flaky push service replays old diffs forever
			if err := s.store.SaveGradeState(ctx, sub.ID, record.Subject, record.Marks); err != nil {
				return err
			}
		}
		return sendErr
	})
}

// firstChangedMark finds the first component, in grading order, whose
// value differs from the stored one and is non-empty. A score being
// retracted back to zero is a state change worth persisting but not
// announcing.
func firstChangedMark(previous, current []univer.Mark) (univer.Mark, bool) {
	for i, mark := range current {
		if mark.Value == 0 {
			continue
		}
		if i >= len(previous) || mark.Value != previous[i].Value {
			return mark, true
		}
	}
	return univer.Mark{}, false
}

// RunLessonCycle reminds every subscriber about lessons starting in
// about LessonLead. A lesson already reminded today is skipped even if
// it stays inside the window on the next tick.
func (s *Scheduler) RunLessonCycle(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "RunLessonCycle")
	defer span.End()

	now := s.opts.Clock.Now()
	s.pruneReminded(now)

	s.forEachSubscriber(ctx, "lessons", func(ctx context.Context, sub Subscriber) error {
		portal, err := s.portal(sub)
		if err != nil {
			return err
		}

		schedule, err := portal.Schedule(ctx, sub.Credential, sub.Lang)
		if err != nil {
			return err
		}

		for _, lesson := range todaysLessons(schedule, now) {
			start, ok := lessonStart(lesson, now)
			if !ok {
				continue
			}
			until := start.Sub(now)
			half := s.opts.LessonInterval / 2
			if until < s.opts.LessonLead-half || until >= s.opts.LessonLead+half {
				continue
			}

			key := reminderKey(sub.ID, lesson, start)
			if !s.markReminded(key, start) {
				continue
			}
			if err := s.send(ctx, sub, LessonNotification(sub.Lang, lesson)); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunDigestCycle sends tomorrow's schedule plus reminders for any exam
// happening tomorrow.
func (s *Scheduler) RunDigestCycle(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "RunDigestCycle")
	defer span.End()

	now := s.opts.Clock.Now()
	tomorrow := now.AddDate(0, 0, 1)

	s.forEachSubscriber(ctx, "digest", func(ctx context.Context, sub Subscriber) error {
		portal, err := s.portal(sub)
		if err != nil {
			return err
		}

		schedule, err := portal.Schedule(ctx, sub.Credential, sub.Lang)
		if err != nil {
			return err
		}
		if err := s.send(ctx, sub, DigestNotification(sub.Lang, todaysLessons(schedule, tomorrow))); err != nil {
			return err
		}

		exams, err := portal.Exams(ctx, sub.Credential, sub.Lang)
		if err != nil {
			// the digest already went out; exams are best effort
			slog.WarnContext(ctx, "failed to fetch exams for digest", "subscriber", sub.ID, "err", err)
			return nil
		}
		for _, exam := range exams {
			if sameDay(exam.Date, tomorrow) {
				if err := s.send(ctx, sub, ExamNotification(sub.Lang, exam)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Scheduler) send(ctx context.Context, sub Subscriber, n push.Notification) error {
	ctx, span := tracer.Start(ctx, "send")
	defer span.End()
	span.SetAttributes(attribute.String("tag", n.Tag))

	err := s.sender.Send(ctx, push.Subscription{
		Endpoint:  sub.Endpoint,
		KeyP256dh: sub.KeyP256dh,
		KeyAuth:   sub.KeyAuth,
	}, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "push delivery failed")
	}
	return err
}

func (s *Scheduler) pruneReminded(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, start := range s.remindedLessons {
		if now.Sub(start) > time.Hour {
			delete(s.remindedLessons, key)
		}
	}
}

// markReminded records the reminder key; it reports false when the key
// was already present.
func (s *Scheduler) markReminded(key string, start time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.remindedLessons[key]; done {
		return false
	}
	s.remindedLessons[key] = start
	return true
}

func reminderKey(subscriberID string, lesson univer.Lesson, start time.Time) string {
	return subscriberID + "|" + lesson.Subject + "|" + start.Format("2006-01-02 15:04")
}

// todaysLessons filters the schedule down to the lessons running on
// day's weekday in day's week parity.
func todaysLessons(schedule univer.Schedule, day time.Time) []univer.Lesson {
	weekday := int(day.Weekday()+6) % 7 // 0 = Monday

	var lessons []univer.Lesson
	for _, lesson := range schedule.Lessons {
		if lesson.Day != weekday {
			continue
		}
		if lesson.Factor != nil && *lesson.Factor != schedule.Factor {
			continue
		}
		lessons = append(lessons, lesson)
	}
	return lessons
}

// lessonStart resolves a "09:00-09:50" slot into a concrete start time
// on the given day.
func lessonStart(lesson univer.Lesson, day time.Time) (time.Time, bool) {
	slot, _, _ := strings.Cut(lesson.Time, "-")
	hourStr, minuteStr, found := strings.Cut(strings.TrimSpace(slot), ":")
	if !found {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(hourStr)
	minute, err2 := strconv.Atoi(minuteStr)
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
