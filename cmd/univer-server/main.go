package main

import (
	"flag"
	"time"
	"univer-backend/lib/configutil"
	"univer-backend/lib/serviceutil"
	"univer-backend/lib/telemetry"
	"univer-backend/services/gateway"
	"univer-backend/services/univer"
	"univer-backend/services/univer/session"
	"univer-backend/services/univer/student"
)

type SessionConfig struct {
	MaxTokenAgeMinutes int  `json:"max_token_age_minutes"`
	SerializeLogins    bool `json:"serialize_logins"`
}

type Config struct {
	Port         int           `json:"port"`
	Institutions []string      `json:"institutions"`
	Session      SessionConfig `json:"session"`
	Notify       NotifyConfig  `json:"notify"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	err := telemetry.SetupFromEnv(ctx, "univer-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer telemetry.Shutdown(ctx)
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if len(cfg.Institutions) == 0 {
		cfg.Institutions = univer.Institutions()
	}

	students := make(map[string]*student.Service, len(cfg.Institutions))
	for _, institution := range cfg.Institutions {
		client, err := univer.NewClient(univer.ClientOptions{Institution: institution})
		if err != nil {
			serviceutil.Fatal("init portal client", err)
		}
		sessions := session.NewManager(client, session.Options{
			MaxTokenAge:     time.Duration(cfg.Session.MaxTokenAgeMinutes) * time.Minute,
			SerializeLogins: cfg.Session.SerializeLogins,
		})
		students[institution] = student.NewService(client, sessions)
	}

	store, vapidPublicKey, err := InitNotify(ctx, cfg.Notify, students)
	if err != nil {
		serviceutil.Fatal("init notify", err)
	}

	handler := gateway.NewHandler(students, store, gateway.Options{
		VapidPublicKey: vapidPublicKey,
	})

	go serviceutil.StartHttpServer(cfg.Port, handler.Router())
	<-ctx.Done()
}
