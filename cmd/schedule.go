package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/prodsched/pkg/export"
)

var (
	scheduleDate   string
	scheduleFormat string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate the schedule of one production day",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleDate, "date", "d", "", "production day (YYYY-MM-DD), defaults to today")
	scheduleCmd.Flags().StringVarP(&scheduleFormat, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(scheduleCmd)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	date, err := parseDate(scheduleDate)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	if scheduleFormat != "json" && scheduleFormat != "csv" {
		return fmt.Errorf("unsupported format %q", scheduleFormat)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	res := svc.Generate(ctx, date)
	if scheduleFormat == "csv" {
		return export.WriteCSV(cmd.OutOrStdout(), res.Tasks)
	}
	return export.WriteJSON(cmd.OutOrStdout(), res)
}
