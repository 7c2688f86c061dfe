// Command mealctl runs maintenance and reporting tasks against the meal
// tracker database.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/macrolens/mealtracker/config"
	"github.com/macrolens/mealtracker/internal/app"
	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mealctl",
	Short:         "Meal tracker maintenance and reports",
	Long:          "mealctl migrates the database and prints nutrient summaries using the same configuration as the server (config.yaml, MEALTRACKER_* variables).",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "show startup logs")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			log.SetOutput(io.Discard)
		}
	}
}

// openApp loads configuration and builds the application. Callers must Close it.
func openApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

// addReportFlags registers the flags shared by report commands.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "user id to report on (required)")
	cmd.Flags().String("tz", "", "IANA timezone for day boundaries (default from config)")
	cmd.Flags().Bool("json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("user")
}

func locationFlag(cmd *cobra.Command, fallback *time.Location) (*time.Location, error) {
	tz, _ := cmd.Flags().GetString("tz")
	if tz == "" {
		return fallback, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz %q: %w", tz, err)
	}
	return loc, nil
}

func dateFlag(cmd *cobra.Command, name string, fallback domain.CalendarDate) (domain.CalendarDate, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return fallback, nil
	}
	return domain.ParseCalendarDate(raw)
}
