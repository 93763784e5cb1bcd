package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/store"
)

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "Inspect stored appraisal analyses",
}

// -- analyses list --

var analysesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		parcel, _ := cmd.Flags().GetString("parcel")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		list, err := st.ListAnalyses(ctx, store.AnalysisFilter{ParcelID: parcel, Limit: limit, Offset: offset})
		if err != nil {
			return eris.Wrap(err, "analyses list")
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No analyses found.")
			return nil
		}

		formatAnalysesList(os.Stdout, list)
		return nil
	},
}

// -- analyses show --

var analysesShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show an analysis and its stored approach payloads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a, err := st.GetAnalysis(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "analyses show")
		}
		return formatAnalysis(os.Stdout, a)
	},
}

func formatAnalysesList(w io.Writer, list []model.Analysis) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPARCEL\tADDRESS\tCREATED")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.ParcelID, a.Address, a.CreatedAt.Format(time.RFC3339))
	}
	tw.Flush() //nolint:errcheck
}

func formatAnalysis(w io.Writer, a *model.Analysis) error {
	fmt.Fprintf(w, "ID:       %s\n", a.ID)
	fmt.Fprintf(w, "Parcel:   %s\n", a.ParcelID)
	fmt.Fprintf(w, "Address:  %s\n", a.Address)
	fmt.Fprintf(w, "Created:  %s\n", a.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:  %s\n", a.UpdatedAt.Format(time.RFC3339))

	names := make([]string, 0, len(a.Approaches))
	for name := range a.Approaches {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var pretty any
		if err := json.Unmarshal(a.Approaches[name], &pretty); err != nil {
			return eris.Wrapf(err, "decode %s", name)
		}
		b, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return eris.Wrapf(err, "format %s", name)
		}
		fmt.Fprintf(w, "\n== %s ==\n%s\n", name, b)
	}
	return nil
}

func init() {
	analysesListCmd.Flags().String("parcel", "", "filter by parcel id")
	analysesListCmd.Flags().Int("limit", 20, "maximum analyses to list")
	analysesListCmd.Flags().Int("offset", 0, "analyses to skip")

	analysesCmd.AddCommand(analysesListCmd)
	analysesCmd.AddCommand(analysesShowCmd)
	rootCmd.AddCommand(analysesCmd)
}
