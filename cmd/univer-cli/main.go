package main

import (
	"context"
	"univer-backend/cmd/univer-cli/commands"
	"univer-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "univer-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
