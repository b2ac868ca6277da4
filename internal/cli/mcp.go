package cli

import (
    "github.com/spf13/cobra"

    "github.com/mark3labs/swagger2ts/internal/mcpserver"
)

var mcpRunner = mcpserver.Run

func newMCPCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "mcp",
        Short: "Serve the conversion as an MCP tool over stdio",
        Long:  "Start a Model Context Protocol server on stdin/stdout exposing a convert tool. Logs go to stderr.",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            verbose, err := cmd.Flags().GetBool("verbose")
            if err != nil {
                return err
            }
            return mcpRunner(cmd.Context(), Version, newLogger(cmd.ErrOrStderr(), verbose))
        },
    }
}
