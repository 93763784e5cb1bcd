package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
	"github.com/sells-group/appraisal-cli/internal/pipeline"
)

var appraiseCmd = &cobra.Command{
	Use:   "appraise",
	Short: "Value a single parcel",
	Long:  "Runs the sales comparison, cost and income approaches for one parcel, reconciles them and prints the appraisal.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		parcel, _ := cmd.Flags().GetString("parcel")
		ptype, _ := cmd.Flags().GetString("type")
		persist, _ := cmd.Flags().GetBool("persist")
		format, _ := cmd.Flags().GetString("format")

		req := pipeline.Request{
			ParcelID:     parcel,
			PropertyType: model.PropertyType(ptype),
			Persist:      persist,
		}
		if cmd.Flags().Changed("judgment") {
			j, _ := cmd.Flags().GetFloat64("judgment")
			req.JudgmentAmount = &j
		}

		env, err := initEnv(ctx, "appraise", persist)
		if err != nil {
			return err
		}
		defer env.Close()

		return runAppraise(ctx, env.Orchestrator, req, format, os.Stdout)
	},
}

func runAppraise(ctx context.Context, o *pipeline.Orchestrator, req pipeline.Request, format string, w io.Writer) error {
	result, err := o.Appraise(ctx, req)
	if err != nil {
		return eris.Wrap(err, "appraise")
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "table":
		formatAppraisal(w, result)
		return nil
	default:
		return eris.Errorf("unknown format %q (want json or table)", format)
	}
}

func formatAppraisal(w io.Writer, r *model.AppraisalResult) {
	fmt.Fprintf(w, "Parcel:         %s\n", r.ParcelID)
	fmt.Fprintf(w, "Address:        %s\n", r.Address)
	fmt.Fprintf(w, "Property type:  %s\n", r.PropertyType)
	if r.AnalysisID != "" {
		fmt.Fprintf(w, "Analysis:       %s\n", r.AnalysisID)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "APPROACH\tVALUE\tWEIGHT\tCONFIDENCE")
	rows := []struct {
		approach model.Approach
		value    *model.IndicatedValue
		weight   int
	}{
		{model.ApproachSales, r.Sales, r.SalesWeight},
		{model.ApproachCost, r.Cost, r.CostWeight},
		{model.ApproachIncome, r.Income, r.IncomeWeight},
	}
	for _, row := range rows {
		if row.value == nil {
			fmt.Fprintf(tw, "%s\t-\t%d%%\tfailed\n", row.approach.Label(), row.weight)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\n", row.approach.Label(), money.Format(row.value.Value), row.weight, row.value.Confidence)
	}
	tw.Flush() //nolint:errcheck
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Reconciled:     %s (%s - %s)\n", money.Format(r.ReconciledValue), money.Format(r.ValueRangeLow), money.Format(r.ValueRangeHigh))
	fmt.Fprintf(w, "Confidence:     %s\n", r.Confidence)
	fmt.Fprintf(w, "Most applicable: %s\n", r.MostApplicable.Label())
	if r.MaxBid != nil {
		fmt.Fprintf(w, "Max bid:        %s\n", money.Format(*r.MaxBid))
	}
	fmt.Fprintf(w, "Recommendation: %s\n", r.Recommendation)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "Error:          %s\n", e)
	}
	fmt.Fprintf(w, "Took:           %.2fs\n", r.ProcessingTimeSeconds)
}

func init() {
	appraiseCmd.Flags().String("parcel", "", "parcel id to value (required)")
	appraiseCmd.Flags().String("type", string(model.PropertyTypeDefault), "property type selecting the weight policy")
	appraiseCmd.Flags().Float64("judgment", 0, "foreclosure judgment amount for bid sizing")
	appraiseCmd.Flags().Bool("persist", false, "store the analysis")
	appraiseCmd.Flags().String("format", "json", "output format: json or table")
	_ = appraiseCmd.MarkFlagRequired("parcel")
	rootCmd.AddCommand(appraiseCmd)
}
