package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	"univer-backend/lib/timezone"
	"univer-backend/services/notify/push"
	"univer-backend/services/univer"

	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	mu           sync.Mutex
	attestations []univer.Attestation
	schedule     univer.Schedule
	exams        []univer.Exam
}

func (p *fakePortal) setAttestations(records []univer.Attestation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attestations = records
}

func (p *fakePortal) Attestation(ctx context.Context, cred univer.Credential, lang string) ([]univer.Attestation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attestations, nil
}

func (p *fakePortal) Schedule(ctx context.Context, cred univer.Credential, lang string) (univer.Schedule, error) {
	return p.schedule, nil
}

func (p *fakePortal) Exams(ctx context.Context, cred univer.Credential, lang string) ([]univer.Exam, error) {
	return p.exams, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []push.Notification
	err  error
}

func (s *fakeSender) Send(ctx context.Context, sub push.Subscription, n push.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *fakeSender) notifications() []push.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]push.Notification{}, s.sent...)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func testScheduler(t *testing.T, portal *fakePortal, sender *fakeSender, clock Clock) *Scheduler {
	store := testStore(t)
	_, err := store.Subscribe(context.Background(), Subscriber{
		Institution: "kstu",
		Credential:  univer.Credential{Username: "student", Password: "x"},
		Endpoint:    "https://push.example/abc",
		Lang:        "ru",
	})
	require.NoError(t, err)

	return NewScheduler(store, sender, map[string]Portal{"kstu": portal}, SchedulerOptions{
		Clock: clock,
	})
}

func TestGradeCycleBaselineIsSilent(t *testing.T) {
	portal := &fakePortal{attestations: []univer.Attestation{
		{Subject: "Математика", Marks: []univer.Mark{{Title: "АБ1", Value: 85}, {Title: "АБ2"}}},
	}}
	sender := &fakeSender{}
	scheduler := testScheduler(t, portal, sender, &fakeClock{now: timezone.Now()})

	scheduler.RunGradeCycle(context.Background())
	require.Empty(t, sender.notifications())
}

func TestGradeCycleNotifiesOnDiff(t *testing.T) {
	portal := &fakePortal{attestations: []univer.Attestation{
		{Subject: "Математика", Marks: []univer.Mark{{Title: "АБ1", Value: 85}, {Title: "АБ2", Value: 0}, {Title: "Экзамен", Value: 0}}},
	}}
	sender := &fakeSender{}
	scheduler := testScheduler(t, portal, sender, &fakeClock{now: timezone.Now()})
	ctx := context.Background()

	scheduler.RunGradeCycle(ctx)

	portal.setAttestations([]univer.Attestation{
		{Subject: "Математика", Marks: []univer.Mark{{Title: "АБ1", Value: 85}, {Title: "АБ2", Value: 90}, {Title: "Экзамен", Value: 0}}},
	})
	scheduler.RunGradeCycle(ctx)

	sent := sender.notifications()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Body, "АБ2")
	require.Contains(t, sent[0].Body, "90")

	// unchanged grades stay silent on the next pass
	scheduler.RunGradeCycle(ctx)
	require.Len(t, sender.notifications(), 1)
}

func TestGradeCycleOneNotificationPerSubject(t *testing.T) {
	portal := &fakePortal{attestations: []univer.Attestation{
		{Subject: "Физика", Marks: []univer.Mark{{Title: "АБ1", Value: 0}, {Title: "АБ2", Value: 0}}},
	}}
	sender := &fakeSender{}
	scheduler := testScheduler(t, portal, sender, &fakeClock{now: timezone.Now()})
	ctx := context.Background()

	scheduler.RunGradeCycle(ctx)

	// both components change at once; only the first in grading order
	// is announced
	portal.setAttestations([]univer.Attestation{
		{Subject: "Физика", Marks: []univer.Mark{{Title: "АБ1", Value: 70}, {Title: "АБ2", Value: 64}}},
	})
	scheduler.RunGradeCycle(ctx)

	sent := sender.notifications()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Body, "АБ1")
}

func TestLessonReminderFiresOnceAcrossTicks(t *testing.T) {
	// Monday 08:50 local; lesson starts 09:00
	start := time.Date(2025, 3, 3, 8, 50, 0, 0, timezone.Location)
	clock := &fakeClock{now: start}

	portal := &fakePortal{schedule: univer.Schedule{
		Lessons: []univer.Lesson{
			{Subject: "Математика", Audience: "221", Day: 0, Time: "09:00-09:50"},
		},
	}}
	sender := &fakeSender{}
	scheduler := testScheduler(t, portal, sender, clock)
	// widen the match window to two minutes so consecutive ticks both
	// see the lesson and the dedup set is what keeps it to one
	scheduler.opts.LessonInterval = time.Minute * 2
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		scheduler.RunLessonCycle(ctx)
		clock.now = clock.now.Add(time.Minute)
	}

	sent := sender.notifications()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Body, "Математика")
}

func TestLessonReminderSkipsOtherDays(t *testing.T) {
	// Tuesday, but the lesson is on Monday
	clock := &fakeClock{now: time.Date(2025, 3, 4, 8, 50, 0, 0, timezone.Location)}
	portal := &fakePortal{schedule: univer.Schedule{
		Lessons: []univer.Lesson{
			{Subject: "Математика", Day: 0, Time: "09:00-09:50"},
		},
	}}
	sender := &fakeSender{}
	scheduler := testScheduler(t, portal, sender, clock)

	scheduler.RunLessonCycle(context.Background())
	require.Empty(t, sender.notifications())
}

func TestDigestListsTomorrowAndExams(t *testing.T) {
	// Monday 22:00; the digest covers Tuesday
	clock := &fakeClock{now: time.Date(2025, 3, 3, 22, 0, 0, 0, timezone.Location)}
	portal := &fakePortal{
		schedule: univer.Schedule{
			Lessons: []univer.Lesson{
				{Subject: "Физика", Audience: "105", Day: 1, Time: "09:00-09:50"},
				{Subject: "Математика", Audience: "221", Day: 0, Time: "09:00-09:50"},
			},
		},
		exams: []univer.Exam{
			{Subject: "Химия", Audience: "307", Date: time.Date(2025, 3, 4, 9, 0, 0, 0, timezone.Location)},
			{Subject: "История", Audience: "101", Date: time.Date(2025, 3, 20, 9, 0, 0, 0, timezone.Location)},
		},
	}
	sender := &fakeSender{}
	scheduler := testScheduler(t, portal, sender, clock)

	scheduler.RunDigestCycle(context.Background())

	sent := sender.notifications()
	require.Len(t, sent, 2)
	require.Contains(t, sent[0].Body, "Физика")
	require.NotContains(t, sent[0].Body, "Математика")
	require.Contains(t, sent[1].Body, "Химия")
}

func TestUntilNextDigest(t *testing.T) {
	portal := &fakePortal{}
	sender := &fakeSender{}
	clock := &fakeClock{}
	scheduler := testScheduler(t, portal, sender, clock)

	// before today's digest hour
	clock.now = time.Date(2025, 3, 3, 21, 30, 0, 0, timezone.Location)
	require.Equal(t, 30*time.Minute, scheduler.untilNextDigest())

	// exactly at the digest hour rolls over to tomorrow
	clock.now = time.Date(2025, 3, 3, 22, 0, 0, 0, timezone.Location)
	require.Equal(t, 24*time.Hour, scheduler.untilNextDigest())

	// after it, tomorrow again
	clock.now = time.Date(2025, 3, 3, 23, 0, 0, 0, timezone.Location)
	require.Equal(t, 23*time.Hour, scheduler.untilNextDigest())
}

func TestDeadEndpointDropsSubscriber(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 3, 22, 0, 0, 0, timezone.Location)}
	portal := &fakePortal{}
	sender := &fakeSender{err: fmt.Errorf("%w (status 410)", push.ErrEndpointGone)}
	scheduler := testScheduler(t, portal, sender, clock)
	ctx := context.Background()

	scheduler.RunDigestCycle(ctx)

	subscribers, err := scheduler.store.Subscribers(ctx)
	require.NoError(t, err)
	require.Empty(t, subscribers)
}
