package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// BuildName and BuildTag are overridable at link time:
//
//	-ldflags "-X main.BuildTag=v1.2.3"
var (
	BuildName = "snapreportctl"
	BuildTag  = "devel"
)

func init() {
	// A module-aware build carries its own version; an explicit
	// -ldflags tag wins over it.
	if info, ok := debug.ReadBuildInfo(); ok && BuildTag == "devel" {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			BuildTag = v
		}
	}

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:          "version",
	Short:        "print the build version",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version())
		return err
	},
}

func version() string {
	return fmt.Sprintf("%s %s (%s/%s)", BuildName, strings.TrimPrefix(BuildTag, "v"), runtime.GOOS, runtime.GOARCH)
}
