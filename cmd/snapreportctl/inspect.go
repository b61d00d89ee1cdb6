package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapreportkit/go-snapreport/internal/inspect"
)

var (
	inspectProjectFlag string
	inspectGitlabFlag  bool
)

func init() {
	inspectCmd.Flags().StringVarP(
		&inspectProjectFlag,
		"project",
		"p",
		"",
		"path to the .xcodeproj to inspect",
	)
	inspectCmd.Flags().BoolVarP(
		&inspectGitlabFlag,
		"gitlab",
		"",
		false,
		"append a suggested .gitlab-ci.yml snippet to the report",
	)
	_ = inspectCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:          "inspect",
	Short:        "Detect snapshot-testing targets in an Xcode project and suggest CI wiring",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := inspect.New().Inspect(cmd.Context(), inspectProjectFlag)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.FormattedReport(inspectGitlabFlag))

		return nil
	},
}
