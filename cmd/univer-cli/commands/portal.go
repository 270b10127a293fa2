package commands

import (
	"fmt"
	"log"
	"os"
	"strings"
	"univer-backend/services/univer"
	"univer-backend/services/univer/session"
	"univer-backend/services/univer/student"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	flagInstitution string
	flagUsername    string
	flagPassword    string
	flagLang        string
)

func init() {
	for _, cmd := range []*cobra.Command{gradesCmd, scheduleCmd, examsCmd} {
		cmd.Flags().StringVarP(&flagInstitution, "institution", "i", "kstu", "Institution code.")
		cmd.Flags().StringVarP(&flagUsername, "username", "u", "", "Portal login.")
		cmd.Flags().StringVarP(&flagPassword, "password", "p", "", "Portal password.")
		cmd.Flags().StringVarP(&flagLang, "lang", "l", "ru", "Page language (ru/kk/en).")
		cmd.MarkFlagRequired("username")
		cmd.MarkFlagRequired("password")
		rootCmd.AddCommand(cmd)
	}
}

func studentService() *student.Service {
	client, err := univer.NewClient(univer.ClientOptions{Institution: flagInstitution})
	if err != nil {
		log.Fatal(err)
	}
	return student.NewService(client, session.NewManager(client, session.Options{}))
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func credential() univer.Credential {
	return univer.Credential{Username: flagUsername, Password: flagPassword}
}

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Prints the reconciled grade records for one student.",
	Run: func(cmd *cobra.Command, args []string) {
		records, err := studentService().Attestation(cmd.Context(), credential(), flagLang)
		if err != nil {
			log.Fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Subject", "Marks", "Sum"})
		for _, record := range records {
			marks := make([]string, 0, len(record.Marks))
			for _, mark := range record.Marks {
				cell := fmt.Sprintf("%s=%d", mark.Title, mark.Value)
				if mark.Active {
					cell += "*"
				}
				marks = append(marks, cell)
			}
			t.AppendRow(table.Row{record.Subject, strings.Join(marks, " "), record.Sum.Value})
		}
		t.Render()
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Prints the weekly schedule for one student.",
	Run: func(cmd *cobra.Command, args []string) {
		schedule, err := studentService().Schedule(cmd.Context(), credential(), flagLang)
		if err != nil {
			log.Fatal(err)
		}

		days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
		t := newTable()
		t.AppendHeader(table.Row{"Day", "Time", "Subject", "Teacher", "Room", "Week"})
		for _, lesson := range schedule.Lessons {
			week := "both"
			if lesson.Factor != nil {
				week = "odd"
				if *lesson.Factor {
					week = "even"
				}
			}
			t.AppendRow(table.Row{days[lesson.Day], lesson.Time, lesson.Subject, lesson.Teacher, lesson.Audience, week})
		}
		t.Render()
		fmt.Printf("week %d\n", schedule.Week)
	},
}

var examsCmd = &cobra.Command{
	Use:   "exams",
	Short: "Prints the exam schedule for one student.",
	Run: func(cmd *cobra.Command, args []string) {
		exams, err := studentService().Exams(cmd.Context(), credential(), flagLang)
		if err != nil {
			log.Fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Date", "Subject", "Teacher", "Room"})
		for _, exam := range exams {
			t.AppendRow(table.Row{exam.Date.Format("02.01.2006 15:04"), exam.Subject, exam.Teacher, exam.Audience})
		}
		t.Render()
	},
}
