package notify

import (
	"bytes"
	"context"
	"testing"
	"univer-backend/lib/testutil"
	"univer-backend/services/notify/db"
	"univer-backend/services/univer"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/notify",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	sealer, err := NewCredentialSealer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	store, err := NewStore(setup.DB, sealer)
	require.NoError(t, err)
	return store
}

func TestSubscribeRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.Subscribe(ctx, Subscriber{
		Institution: "kstu",
		Credential:  univer.Credential{Username: "student", Password: "secret"},
		Endpoint:    "https://push.example/abc",
		KeyP256dh:   "p256dh",
		KeyAuth:     "auth",
		Lang:        "ru",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	subscribers, err := store.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	require.Equal(t, id, subscribers[0].ID)
	// the password never hits the database in the clear
	require.Equal(t, "secret", subscribers[0].Credential.Password)
	require.Equal(t, "kstu", subscribers[0].Institution)
}

func TestResubscribeKeepsIdentity(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sub := Subscriber{
		Institution: "kstu",
		Credential:  univer.Credential{Username: "student", Password: "old"},
		Endpoint:    "https://push.example/abc",
		KeyP256dh:   "p1",
		KeyAuth:     "a1",
		Lang:        "ru",
	}
	first, err := store.Subscribe(ctx, sub)
	require.NoError(t, err)

	sub.Credential.Password = "new"
	sub.Lang = "en"
	second, err := store.Subscribe(ctx, sub)
	require.NoError(t, err)
	require.Equal(t, first, second)

	subscribers, err := store.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	require.Equal(t, "new", subscribers[0].Credential.Password)
	require.Equal(t, "en", subscribers[0].Lang)
}

func TestUnsubscribeRemovesState(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.Subscribe(ctx, Subscriber{
		Institution: "kstu",
		Credential:  univer.Credential{Username: "student", Password: "x"},
		Endpoint:    "https://push.example/abc",
	})
	require.NoError(t, err)

	require.NoError(t, store.SaveGradeState(ctx, id, "Физика", []univer.Mark{{Title: "АБ1", Value: 70}}))

	require.NoError(t, store.Unsubscribe(ctx, "https://push.example/abc"))
	// idempotent
	require.NoError(t, store.Unsubscribe(ctx, "https://push.example/abc"))

	subscribers, err := store.Subscribers(ctx)
	require.NoError(t, err)
	require.Empty(t, subscribers)

	state, err := store.GradeState(ctx, id)
	require.NoError(t, err)
	require.Empty(t, state)
}

func TestGradeStateRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.Subscribe(ctx, Subscriber{
		Institution: "kstu",
		Credential:  univer.Credential{Username: "student", Password: "x"},
		Endpoint:    "https://push.example/abc",
	})
	require.NoError(t, err)

	marks := []univer.Mark{{Title: "АБ1", Value: 85}, {Title: "АБ2"}}
	require.NoError(t, store.SaveGradeState(ctx, id, "Математика", marks))
	// upsert replaces, not appends
	marks[1].Value = 90
	require.NoError(t, store.SaveGradeState(ctx, id, "Математика", marks))

	state, err := store.GradeState(ctx, id)
	require.NoError(t, err)
	require.Len(t, state, 1)
	require.Equal(t, marks, state["Математика"])
}

func TestSealerRejectsTampering(t *testing.T) {
	sealer, err := NewCredentialSealer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := sealer.Seal("secret")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = sealer.Open(sealed)
	require.Error(t, err)
}
