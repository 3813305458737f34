package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/berthplan/connectors"
	"github.com/kilianp07/berthplan/connectors/schedule"
	"github.com/kilianp07/berthplan/core/ingest"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/jobs/crawl"
)

var ingestLabel string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv|file.json>",
	Short: "Store a schedule file as a new csv-upload version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		src, err := schedule.NewFileSource(schedule.FileConfig{Path: args[0]})
		if err != nil {
			return err
		}
		table, err := src.Fetch(cmd.Context())
		if err != nil {
			return err
		}
		res, err := ingest.Normalize(table, ingest.Options{Location: e.loc})
		if err != nil {
			return err
		}
		for _, r := range res.Reasons {
			fmt.Fprintf(cmd.ErrOrStderr(), "dropped %s\n", r)
		}
		label := ingestLabel
		if label == "" {
			label = "upload " + filepath.Base(args[0])
		}
		id, err := e.store.CreateVersion(cmd.Context(), res.Rows, model.SourceCSVUpload, label)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %s: %d rows stored, %d dropped\n", id, len(res.Rows), res.Dropped)
		return err
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch the configured schedule source once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		if !e.cfg.Crawl.Enabled() {
			return fmt.Errorf("no crawl source configured (known types: %v)", connectors.SourceTypes())
		}
		src, err := connectors.NewSource(e.cfg.Crawl.Source)
		if err != nil {
			return err
		}
		p, err := crawl.NewPoller(src, e.store, crawl.Config{
			Location:      e.loc,
			SkipUnchanged: e.cfg.Crawl.SkipUnchanged,
		}, nil, logger.New("crawl"))
		if err != nil {
			return err
		}
		out, err := p.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		if out.Skipped {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "unchanged (%d rows), no version stored\n", out.Rows)
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %s: %d rows stored, %d dropped\n", out.VersionID, out.Rows, out.Dropped)
		return err
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestLabel, "label", "l", "", "version label")
	rootCmd.AddCommand(ingestCmd, crawlCmd)
}
