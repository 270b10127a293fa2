package commands

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"log"
	"univer-backend/services/notify"
	"univer-backend/services/notify/db"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var flagDatabase string

func init() {
	subscribersCmd.Flags().StringVar(&flagDatabase, "db", "notify.db", "Path to the notification sqlite database.")
	rootCmd.AddCommand(subscribersCmd)
	rootCmd.AddCommand(vapidCmd)
}

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "Lists push subscribers. Credentials stay sealed.",
	Run: func(cmd *cobra.Command, args []string) {
		database, err := sql.Open("sqlite", flagDatabase)
		if err != nil {
			log.Fatal(err)
		}
		defer database.Close()

		rows, err := db.New(database).GetSubscribers(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Institution", "Username", "Lang", "Endpoint"})
		for _, row := range rows {
			endpoint := row.Endpoint
			if len(endpoint) > 48 {
				endpoint = endpoint[:48] + "..."
			}
			t.AppendRow(table.Row{row.ID, row.Institution, row.Username, row.Lang, endpoint})
		}
		t.Render()
	},
}

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generates a VAPID keypair and a credential sealing key for config.json5.",
	Run: func(cmd *cobra.Command, args []string) {
		private, public, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Fatal(err)
		}
		sealKey, err := notify.GenerateSealKey()
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("vapid public key: ", public)
		fmt.Println("vapid private key:", private)
		fmt.Println("seal key:         ", base64.StdEncoding.EncodeToString(sealKey))
	},
}
