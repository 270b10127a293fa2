package main

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"univer-backend/services/notify"
	"univer-backend/services/notify/push"
	"univer-backend/services/univer/student"

	_ "modernc.org/sqlite"
)

type VapidConfig struct {
	Subject    string `json:"subject"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

type NotifyConfig struct {
	// Database is the sqlite path for subscriptions. Empty disables
	// notifications entirely.
	Database string `json:"database"`
	// SealKey is the base64 of the 32-byte credential sealing key.
	SealKey    string      `json:"seal_key"`
	Vapid      VapidConfig `json:"vapid"`
	DigestHour int         `json:"digest_hour"`
}

// InitNotify wires the notification daemon: store, web push transport
// and the scheduler loops. Returns a nil store when disabled.
func InitNotify(ctx context.Context, cfg NotifyConfig, students map[string]*student.Service) (*notify.Store, string, error) {
	if cfg.Database == "" {
		return nil, "", nil
	}

	key, err := base64.StdEncoding.DecodeString(cfg.SealKey)
	if err != nil {
		return nil, "", fmt.Errorf("decode seal key: %w", err)
	}
	sealer, err := notify.NewCredentialSealer(key)
	if err != nil {
		return nil, "", err
	}

	database, err := sql.Open("sqlite", cfg.Database)
	if err != nil {
		return nil, "", err
	}
	store, err := notify.NewStore(database, sealer)
	if err != nil {
		return nil, "", err
	}

	sender := push.NewWebPushSender(push.VapidOptions{
		Subject:    cfg.Vapid.Subject,
		PublicKey:  cfg.Vapid.PublicKey,
		PrivateKey: cfg.Vapid.PrivateKey,
	})

	portals := make(map[string]notify.Portal, len(students))
	for institution, service := range students {
		portals[institution] = service
	}

	scheduler := notify.NewScheduler(store, sender, portals, notify.SchedulerOptions{
		DigestHour: cfg.DigestHour,
	})
	scheduler.Start(ctx)

	return store, cfg.Vapid.PublicKey, nil
}
