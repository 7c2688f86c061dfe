package main

import (
	"fmt"

	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Print the nutrient summary of one day",
	Args:  cobra.NoArgs,
	RunE:  runDay,
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print per-day totals over [from, to)",
	Args:  cobra.NoArgs,
	RunE:  runSeries,
}

var importCmd = &cobra.Command{
	Use:   "import <product name>",
	Short: "Import a food item from FoodData Central",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	addReportFlags(dayCmd)
	dayCmd.Flags().String("date", "", "day as YYYY-MM-DD (default today)")

	addReportFlags(seriesCmd)
	seriesCmd.Flags().String("from", "", "first day as YYYY-MM-DD (required)")
	seriesCmd.Flags().String("to", "", "end day as YYYY-MM-DD, exclusive (required)")
	seriesCmd.Flags().Bool("fill", false, "include days without meals as zero rows")
	_ = seriesCmd.MarkFlagRequired("from")
	_ = seriesCmd.MarkFlagRequired("to")

	importCmd.Flags().String("user", "", "owner of the imported food item (required)")
	importCmd.Flags().String("brand", "", "brand name to prefer")
	_ = importCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(migrateCmd, dayCmd, seriesCmd, importCmd)
}

func runDay(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := locationFlag(cmd, a.Tracker.Location())
	if err != nil {
		return err
	}
	day, err := dateFlag(cmd, "date", a.Tracker.Today(loc))
	if err != nil {
		return err
	}
	userID, _ := cmd.Flags().GetString("user")

	summary, err := a.Tracker.DailySummary(cmd.Context(), userID, day, loc)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	renderDay(cmd.OutOrStdout(), summary)
	return nil
}

func runSeries(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := locationFlag(cmd, a.Tracker.Location())
	if err != nil {
		return err
	}
	today := a.Tracker.Today(loc)
	from, err := dateFlag(cmd, "from", today)
	if err != nil {
		return err
	}
	to, err := dateFlag(cmd, "to", today)
	if err != nil {
		return err
	}
	userID, _ := cmd.Flags().GetString("user")
	fill, _ := cmd.Flags().GetBool("fill")

	series, err := a.Tracker.Series(cmd.Context(), userID, from, to, loc, fill)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), series)
	}
	renderSeries(cmd.OutOrStdout(), from, to, series)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Importer == nil {
		return domain.ErrImportDisabled
	}
	userID, _ := cmd.Flags().GetString("user")
	brand, _ := cmd.Flags().GetString("brand")

	result, err := a.Importer.Import(cmd.Context(), userID, &domain.SearchRequest{ProductName: args[0], Brand: brand})
	if result != nil && result.Match != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "best match: %s (fdc %d, confidence %.1f)\n",
			result.Match.Description, result.Match.FdcID, result.Match.MatchScore)
	}
	if err != nil {
		return err
	}
	renderFoodItem(cmd.OutOrStdout(), result.Item)
	return nil
}
