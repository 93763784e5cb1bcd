package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/appraisal-cli/internal/pipeline"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Print the pipeline state machine as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), pipeline.Graph())
		return err
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}
