package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/grid"
	"github.com/kilianp07/berthplan/core/ingest"
	"github.com/kilianp07/berthplan/core/reference"
	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/pkg/export"
)

var (
	showFormat string
	showFrom   string
	showTo     string
	showBerths string
	showSnap   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert or update the built-in terminals and berths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		res, err := reference.Upsert(cmd.Context(), e.store, logger.New("seed"))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "inserted %d, updated %d, unchanged %d\n", res.Inserted, res.Updated, res.Unchanged)
		return err
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List stored versions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		vs, err := e.store.ListVersions(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tROWS\tLABEL")
		for _, v := range vs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", v.ShortID(), v.CreatedAt.In(e.loc).Format("2006-01-02 15:04:05"), v.Source, v.RowCount, v.Label)
		}
		return tw.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show [version-id|latest]",
	Short: "Print the rows of a version",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		v, err := e.version(cmd.Context(), optionalArg(args))
		if err != nil {
			return err
		}
		scope := assignment.Scope{Berths: assignment.ParseBerths(showBerths)}
		if scope.From, err = parseFlagTime(showFrom, e.loc); err != nil {
			return err
		}
		if scope.To, err = parseFlagTime(showTo, e.loc); err != nil {
			return err
		}
		rows := assignment.InScope(v.Rows, scope)
		if showSnap {
			rows = grid.SnapRows(rows, e.cfg.Planning.Interval())
		}
		if showFormat != "table" {
			return export.Write(cmd.OutOrStdout(), showFormat, rows, e.loc)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VESSEL\tBERTH\tETA\tETD\tLOA\tSTART")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f\t%.0f\n", r.Vessel, r.Berth,
				r.ETA.In(e.loc).Format("01-02 15:04"), r.ETD.In(e.loc).Format("01-02 15:04"), r.LOAM, r.StartMeter)
		}
		return tw.Flush()
	},
}

func parseFlagTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := ingest.ParseTime(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w", s, err)
	}
	return t, nil
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "table", "output format: table, csv or json")
	showCmd.Flags().StringVar(&showFrom, "from", "", "only calls departing after this time")
	showCmd.Flags().StringVar(&showTo, "to", "", "only calls arriving before this time")
	showCmd.Flags().StringVar(&showBerths, "berths", "", "comma separated berth filter")
	showCmd.Flags().BoolVar(&showSnap, "snap", false, "snap timestamps to the configured interval")
	rootCmd.AddCommand(seedCmd, versionsCmd, showCmd)
}
