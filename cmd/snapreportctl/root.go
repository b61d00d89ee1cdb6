package main

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/snapreportkit/go-snapreport/internal/pipeline"
	"github.com/snapreportkit/go-snapreport/internal/reporter"
)

var (
	inputFlag        []string
	inputDirFlag     []string
	formatFlag       string
	outputDirFlag    string
	htmlTemplateFlag string
	reportNameFlag   string
	parallelismFlag  int
	diffToolFlag     string
)

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(
		&inputFlag,
		"input",
		"i",
		nil,
		"input report JSON file or .xcresult bundle (repeatable): -i run1.json -i run2.xcresult",
	)
	rootCmd.PersistentFlags().StringArrayVarP(
		&inputDirFlag,
		"input-dir",
		"d",
		nil,
		"directory scanned for *.json reports and *.xcresult bundles (repeatable)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&formatFlag,
		"format",
		"f",
		"json,junit,html",
		"comma-separated output formats: json,junit,html",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputDirFlag,
		"output",
		"o",
		"snapshot-report-output",
		"output directory for generated reports",
	)
	rootCmd.PersistentFlags().StringVarP(
		&htmlTemplateFlag,
		"html-template",
		"",
		"",
		"custom Go html/template file for the html report",
	)
	rootCmd.PersistentFlags().StringVarP(
		&reportNameFlag,
		"name",
		"",
		"",
		"override the merged report name",
	)
	rootCmd.PersistentFlags().IntVarP(
		&parallelismFlag,
		"parallelism",
		"j",
		0,
		"max parallel workers for loads, exports and writes (0 = CPU count)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&diffToolFlag,
		"diff-tool",
		"",
		"odiff",
		"pixel-diff binary used for failed tests (empty disables the diff pass)",
	)

	viper.SetEnvPrefix("SNAPREPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, name := range []string{"format", "output", "html-template", "name", "parallelism", "diff-tool"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

var rootCmd = &cobra.Command{
	Use:          "snapreportctl",
	Long:         "Merge snapshot test reports and xcresult bundles into JSON, JUnit XML and HTML reports",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(inputFlag) == 0 && len(inputDirFlag) == 0 {
			return fmt.Errorf("at least one --input or --input-dir is required")
		}

		formats, err := reporter.ParseFormats(viper.GetString("format"))
		if err != nil {
			return err
		}

		cfg := pipeline.Config{
			Inputs:           inputFlag,
			InputDirs:        inputDirFlag,
			Formats:          formats,
			OutputDirectory:  viper.GetString("output"),
			HTMLTemplatePath: viper.GetString("html-template"),
			NameOverride:     viper.GetString("name"),
			Parallelism:      viper.GetInt("parallelism"),
			DiffToolPath:     viper.GetString("diff-tool"),
			Out:              cmd.OutOrStdout(),
		}

		if err := pipeline.Run(ctx, cfg); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.Success.Render("Report generation completed successfully"))

		return nil
	},
}
