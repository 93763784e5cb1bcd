package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/reconcile"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the reconciliation weight policy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		policy, err := reconcile.NewWeightPolicy(cfg.Valuation.Weights)
		if err != nil {
			return err
		}
		formatPolicy(os.Stdout, policy)
		return nil
	},
}

// formatPolicy prints one row per property type. Types without their own row
// show the default weights they resolve to.
func formatPolicy(w io.Writer, p reconcile.WeightPolicy) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROPERTY TYPE\tSALES\tCOST\tINCOME\tMOST APPLICABLE\tSOURCE")
	for _, pt := range model.PropertyTypes {
		wt := p.Lookup(pt)
		source := "configured"
		if !p.Has(pt) {
			source = "default"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n", pt, wt.Sales, wt.Cost, wt.Income, p.MostApplicable(pt).Label(), source)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	rootCmd.AddCommand(policyCmd)
}
