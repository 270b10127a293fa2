// Package notify delivers web push notifications to subscribed
// students: grade changes, upcoming-lesson reminders and the daily
// next-day digest. Subscriptions and per-subject grade state live in
// sqlite; polling happens in background loops owned by the Scheduler.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"univer-backend/lib/timezone"
	"univer-backend/services/notify/db"
	"univer-backend/services/univer"

	"github.com/google/uuid"
)

// Subscriber is one push subscription with the credentials needed to
// poll the portal on the student's behalf.
type Subscriber struct {
	ID          string
	Institution string
	Credential  univer.Credential
	Endpoint    string
	KeyP256dh   string
	KeyAuth     string
	Lang        string
}

// Store persists subscribers and their last-seen grade state.
type Store struct {
	db     *sql.DB
	qry    *db.Queries
	sealer *CredentialSealer
}

func NewStore(database *sql.DB, sealer *CredentialSealer) (*Store, error) {
	if _, err := database.Exec(db.Schema); err != nil {
		return nil, fmt.Errorf("apply notify schema: %w", err)
	}
	return &Store{
		db:     database,
		qry:    db.New(database),
		sealer: sealer,
	}, nil
}

// Subscribe registers (or refreshes) a subscription. The same endpoint
// resubscribing keeps its id and replaces everything else.
func (s *Store) Subscribe(ctx context.Context, sub Subscriber) (string, error) {
	sealed, err := s.sealer.Seal(sub.Credential.Password)
	if err != nil {
		return "", err
	}

	if existing, err := s.qry.GetSubscriberByEndpoint(ctx, sub.Endpoint); err == nil {
		sub.ID = existing.ID
	} else {
		sub.ID = uuid.NewString()
	}

	err = s.qry.CreateSubscriber(ctx, db.CreateSubscriberParams{
		ID:             sub.ID,
		Institution:    sub.Institution,
		Username:       sub.Credential.Username,
		SealedPassword: sealed,
		Endpoint:       sub.Endpoint,
		KeyP256dh:      sub.KeyP256dh,
		KeyAuth:        sub.KeyAuth,
		Lang:           sub.Lang,
		CreatedAt:      timezone.Now().Unix(),
	})
	if err != nil {
		return "", err
	}
	return sub.ID, nil
}

// Unsubscribe removes a subscription by endpoint, together with its
// grade state.
func (s *Store) Unsubscribe(ctx context.Context, endpoint string) error {
	sub, err := s.qry.GetSubscriberByEndpoint(ctx, endpoint)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	return s.remove(ctx, sub.ID)
}

// Remove drops a subscriber by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.remove(ctx, id)
}

func (s *Store) remove(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	if err := txqry.DeleteGradeStates(ctx, id); err != nil {
		return err
	}
	if err := txqry.DeleteSubscriber(ctx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Subscribers returns every subscription with unsealed credentials.
func (s *Store) Subscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.qry.GetSubscribers(ctx)
	if err != nil {
		return nil, err
	}

	subscribers := make([]Subscriber, 0, len(rows))
	for _, row := range rows {
		password, err := s.sealer.Open(row.SealedPassword)
		if err != nil {
			return nil, fmt.Errorf("subscriber %s: %w", row.ID, err)
		}
		subscribers = append(subscribers, Subscriber{
			ID:          row.ID,
			Institution: row.Institution,
			Credential:  univer.Credential{Username: row.Username, Password: password},
			Endpoint:    row.Endpoint,
			KeyP256dh:   row.KeyP256dh,
			KeyAuth:     row.KeyAuth,
			Lang:        row.Lang,
		})
	}
	return subscribers, nil
}

// GradeState returns the last-seen marks per subject for a subscriber.
func (s *Store) GradeState(ctx context.Context, subscriberID string) (map[string][]univer.Mark, error) {
	rows, err := s.qry.GetGradeStates(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	state := make(map[string][]univer.Mark, len(rows))
	for _, row := range rows {
		var marks []univer.Mark
		if err := json.Unmarshal([]byte(row.Marks), &marks); err != nil {
			return nil, fmt.Errorf("grade state %s/%s: %w", subscriberID, row.Subject, err)
		}
		state[row.Subject] = marks
	}
	return state, nil
}

// SaveGradeState upserts one subject's marks for a subscriber.
func (s *Store) SaveGradeState(ctx context.Context, subscriberID, subject string, marks []univer.Mark) error {
	encoded, err := json.Marshal(marks)
	if err != nil {
		return err
	}
	return s.qry.UpsertGradeState(ctx, db.UpsertGradeStateParams{
		SubscriberID: subscriberID,
		Subject:      subject,
		Marks:        string(encoded),
		UpdatedAt:    timezone.Now().Unix(),
	})
}
