package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrichment-api/internal/export"
	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/store"
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Inspect and export extracted facts",
}

// -- facts list --

var factsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extracted facts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		filter, err := factsFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		facts, err := st.ListFacts(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "facts list")
		}

		if len(facts) == 0 {
			fmt.Fprintln(os.Stderr, "No facts found.")
			return nil
		}

		formatFactsList(os.Stdout, facts)
		return nil
	},
}

// -- facts export --

var factsExportPath string

var factsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export facts to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := factsFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		if filter.Limit == 0 {
			filter.Limit = 10000
		}

		facts, err := st.ListFacts(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "facts export")
		}

		if err := export.WriteFactsXLSX(factsExportPath, facts); err != nil {
			return err
		}

		zap.L().Info("facts exported",
			zap.Int("facts", len(facts)),
			zap.String("path", factsExportPath),
		)
		return nil
	},
}

// factsFilterFromFlags builds a FactFilter from the flags shared by the
// facts subcommands.
func factsFilterFromFlags(cmd *cobra.Command) (store.FactFilter, error) {
	jobID, _ := cmd.Flags().GetString("job")
	approval, _ := cmd.Flags().GetString("approval")
	factType, _ := cmd.Flags().GetString("type")
	tier, _ := cmd.Flags().GetInt("tier")
	minConf, _ := cmd.Flags().GetFloat64("min-confidence")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.FactFilter{
		JobID:         jobID,
		FactType:      factType,
		Tier:          tier,
		MinConfidence: minConf,
		Limit:         limit,
	}
	if approval != "" {
		status := model.ApprovalStatus(approval)
		if !status.Valid() {
			return store.FactFilter{}, eris.Errorf("unknown approval status: %s", approval)
		}
		filter.Approval = status
	}
	if tier != 0 && (tier < model.TierMin || tier > model.TierMax) {
		return store.FactFilter{}, eris.Errorf("tier must be between %d and %d", model.TierMin, model.TierMax)
	}
	return filter, nil
}

// formatFactsList writes a tabular list of facts to w.
func formatFactsList(out io.Writer, facts []model.Fact) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tJOB\tTYPE\tCONF\tTIER\tAPPROVAL\tSOURCE")
	_, _ = fmt.Fprintln(w, "--\t---\t----\t----\t----\t--------\t------")

	for _, f := range facts {
		source := f.SourceURL
		if len(source) > 40 {
			source = source[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%s\t%s\n",
			truncateID(f.ID),
			truncateID(f.JobID),
			f.FactType,
			f.Confidence,
			f.Tier,
			f.ApprovalStatus,
			source,
		)
	}
	_ = w.Flush()
}

func addFactsFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "filter by job ID")
	cmd.Flags().String("approval", "", "filter by approval status (pending, approved, rejected)")
	cmd.Flags().String("type", "", "filter by fact type")
	cmd.Flags().Int("tier", 0, "filter by escalation tier (1-3)")
	cmd.Flags().Float64("min-confidence", 0, "minimum confidence (0-1)")
	cmd.Flags().Int("limit", 0, "max number of facts")
}

func init() {
	addFactsFilterFlags(factsListCmd)
	addFactsFilterFlags(factsExportCmd)
	factsExportCmd.Flags().StringVar(&factsExportPath, "out", "facts.xlsx", "output XLSX path")

	factsCmd.AddCommand(factsListCmd)
	factsCmd.AddCommand(factsExportCmd)
	rootCmd.AddCommand(factsCmd)
}
