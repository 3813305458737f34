package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/grid"
	"github.com/kilianp07/berthplan/core/occupancy"
	"github.com/kilianp07/berthplan/core/validate"
	"github.com/kilianp07/berthplan/pkg/chart"
)

var (
	validateSnap bool
	reportFrom   string
	reportDays   int
	reportHTML   string
)

// errViolations makes the validate command exit non-zero.
var errViolations = errors.New("violations found")

var validateCmd = &cobra.Command{
	Use:   "validate [version-id|latest]",
	Short: "Check a version for temporal, spatial and berth limit conflicts",
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
		ref, err := e.reference(cmd.Context())
		if err != nil {
			return err
		}
		rows := v.Rows
		if validateSnap {
			rows = grid.SnapRows(rows, e.cfg.Planning.Interval())
		}
		rep := validate.Check(rows, e.cfg.Planning.Gap(), ref)
		out := cmd.OutOrStdout()
		for _, m := range rep.Messages() {
			fmt.Fprintln(out, m)
		}
		fmt.Fprintf(out, "%s: %d temporal, %d spatial, %d berth limit\n",
			v.Summary().ShortID(), len(rep.Temporal), len(rep.Spatial), len(rep.Limits))
		if rep.Len() > 0 {
			return errViolations
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <from-version> <to-version>",
	Short: "Show the calls that changed between two versions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		a, err := e.version(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		b, err := e.version(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		changes := assignment.Compare(a.Rows, b.Rows)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CHANGE\tVESSEL\tFIELDS")
		for _, c := range changes {
			fmt.Fprintf(tw, "%s\t%s\t%v\n", c.Kind, c.Vessel, c.Fields)
		}
		fmt.Fprintf(tw, "\n%d changes\n", len(changes))
		return tw.Flush()
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [version-id|latest]",
	Short: "Summarise berth utilisation over a window",
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
		from, err := parseFlagTime(reportFrom, e.loc)
		if err != nil {
			return err
		}
		if from.IsZero() {
			y, m, d := time.Now().In(e.loc).Date()
			from = time.Date(y, m, d, 0, 0, 0, 0, e.loc)
		}
		to := from.AddDate(0, 0, reportDays)
		ref, err := e.reference(cmd.Context())
		if err != nil {
			return err
		}
		sum, err := occupancy.Compute(v.Rows, from, to, ref)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BERTH\tCALLS\tHOURS\tUTILISATION")
		for _, b := range sum.Berths {
			fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f%%\n", b.Berth, b.Calls, b.Hours, b.Ratio*100)
		}
		fmt.Fprintf(tw, "\nmean %.1f%%, std dev %.1f%%, busiest %s\n", sum.Mean*100, sum.StdDev*100, sum.Peak)
		if err := tw.Flush(); err != nil {
			return err
		}
		if reportHTML == "" {
			return nil
		}
		page, err := chart.UtilisationHTML(sum, "Berth utilisation "+v.Summary().ShortID())
		if err != nil {
			return err
		}
		return os.WriteFile(reportHTML, []byte(page), 0o644)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateSnap, "snap", false, "snap timestamps to the configured interval before checking")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "window start (default: today 00:00)")
	reportCmd.Flags().IntVar(&reportDays, "days", 7, "window length in days")
	reportCmd.Flags().StringVar(&reportHTML, "html", "", "also write a chart to this file")
	rootCmd.AddCommand(validateCmd, diffCmd, reportCmd)
}
