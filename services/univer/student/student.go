// Package student is the student-facing API over the portal scraper:
// every operation takes a credential, runs under a managed session with
// transparent relogin, and returns reconciled domain records.
package student

import (
	"context"
	"univer-backend/services/univer"
	"univer-backend/services/univer/session"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("services/univer/student")

type Service struct {
	client   *univer.Client
	sessions *session.Manager
}

func NewService(client *univer.Client, sessions *session.Manager) *Service {
	return &Service{client: client, sessions: sessions}
}

func (s *Service) Client() *univer.Client {
	return s.client
}

// CheckCredential performs a login without running anything else,
// surfacing univer.ErrInvalidCredential for bad credentials.
func (s *Service) CheckCredential(ctx context.Context, cred univer.Credential) error {
	_, err := s.sessions.Acquire(ctx, cred)
	return err
}

// Invalidate drops the student's cached session.
func (s *Service) Invalidate(cred univer.Credential) {
	s.sessions.Invalidate(cred.Username)
}

// Attestation returns the reconciled grade records: the attestation and
// attendance pages are fetched in parallel, attendance subject names
// are translated into the attestation page's language, and the two are
// merged into one record per subject.
func (s *Service) Attestation(ctx context.Context, cred univer.Credential, lang string) ([]univer.Attestation, error) {
	ctx, span := tracer.Start(ctx, "student:Attestation")
	defer span.End()

	return session.WithSession(ctx, s.sessions, cred,
		func(ctx context.Context, token univer.Token) ([]univer.Attestation, error) {
			var attestations []univer.Attestation
			var attendances []univer.Attendance

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				var err error
				attestations, err = s.client.Attestation(groupCtx, token, lang)
				return err
			})
			group.Go(func() error {
				var err error
				attendances, err = s.client.Attendance(groupCtx, token, lang)
				return err
			})
			if err := group.Wait(); err != nil {
				return nil, err
			}

			// attendance subject names sometimes render in the
			// student's enrollment language regardless of the switch
			if table := s.client.Translations(ctx, token, cred.Username); table.Len() > 0 {
				for i := range attendances {
					attendances[i].Subject = table.In(attendances[i].Subject, lang)
				}
			}

			return univer.MergeAttestationAttendance(attestations, attendances), nil
		})
}

// Attendance returns the raw attendance records without reconciliation.
func (s *Service) Attendance(ctx context.Context, cred univer.Credential, lang string) ([]univer.Attendance, error) {
	return session.WithSession(ctx, s.sessions, cred,
		func(ctx context.Context, token univer.Token) ([]univer.Attendance, error) {
			return s.client.Attendance(ctx, token, lang)
		})
}

// Schedule returns the weekly schedule with teacher names resolved
// against the staff directory where possible.
func (s *Service) Schedule(ctx context.Context, cred univer.Credential, lang string) (univer.Schedule, error) {
	ctx, span := tracer.Start(ctx, "student:Schedule")
	defer span.End()

	return session.WithSession(ctx, s.sessions, cred,
		func(ctx context.Context, token univer.Token) (univer.Schedule, error) {
			schedule, err := s.client.Schedule(ctx, token, lang)
			if err != nil {
				return univer.Schedule{}, err
			}
			for i, lesson := range schedule.Lessons {
				teacher := s.client.ResolveTeacher(ctx, lesson.Teacher)
				schedule.Lessons[i].Teacher = teacher.DisplayName
				schedule.Lessons[i].TeacherLink = teacher.ProfileUrl
			}
			return schedule, nil
		})
}

func (s *Service) Exams(ctx context.Context, cred univer.Credential, lang string) ([]univer.Exam, error) {
	return session.WithSession(ctx, s.sessions, cred,
		func(ctx context.Context, token univer.Token) ([]univer.Exam, error) {
			return s.client.Exams(ctx, token, lang)
		})
}

func (s *Service) Transcript(ctx context.Context, cred univer.Credential, lang string) (univer.Transcript, error) {
	return session.WithSession(ctx, s.sessions, cred,
		func(ctx context.Context, token univer.Token) (univer.Transcript, error) {
			return s.client.Transcript(ctx, token, lang)
		})
}

func (s *Service) Materials(ctx context.Context, cred univer.Credential, lang string) ([]univer.CourseMaterial, error) {
	return session.WithSession(ctx, s.sessions, cred,
		func(ctx context.Context, token univer.Token) ([]univer.CourseMaterial, error) {
			return s.client.Materials(ctx, token, lang)
		})
}

// Translations exposes the per-student subject translation table.
func (s *Service) Translations(ctx context.Context, cred univer.Credential) (map[string]univer.Translation, error) {
	return session.WithSession(ctx, s.sessions, cred,
		func(ctx context.Context, token univer.Token) (map[string]univer.Translation, error) {
			table := s.client.Translations(ctx, token, cred.Username)
			out := make(map[string]univer.Translation, table.Len())
			table.Each(func(subject string, tr univer.Translation) {
				out[subject] = tr
			})
			return out, nil
		})
}
