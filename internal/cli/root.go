package cli

import (
    "fmt"
    "io"
    "log/slog"

    "github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

// Execute runs the swagger2ts CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:           "swagger2ts",
        Short:         "Generate TypeScript types and request functions from Swagger/OpenAPI specs",
        Long:          "swagger2ts turns OpenAPI 3.x and Swagger 2.0 documents into TypeScript interfaces, enums and typed request factory functions.",
        Version:       Version,
        SilenceErrors: true,
        SilenceUsage:  true,
        RunE: func(cmd *cobra.Command, args []string) error {
            return cmd.Help()
        },
    }

    // Convert Cobra flag errors (like unknown flags) into friendly usage errors
    // that also show the command's help text.
    cmd.SetFlagErrorFunc(flagUsageError)

    cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
    cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

    for _, sub := range []*cobra.Command{newGenerateCmd(), newInitCmd(), newMCPCmd()} {
        sub.SetFlagErrorFunc(flagUsageError)
        cmd.AddCommand(sub)
    }

    return cmd
}

func flagUsageError(c *cobra.Command, err error) error {
    return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

// newLogger writes human readable records to w; verbose lowers the level to
// debug so per-phase counts show up.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
    level := slog.LevelInfo
    if verbose {
        level = slog.LevelDebug
    }
    return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
