// Command anton runs the voice assistant: wake word listener, speech
// pipeline, tool-calling conversation loop and the web gateway.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "anton",
		Short:         "Anton voice assistant",
		Long:          "Anton is a self-hosted voice assistant: wake word, speech to text, a Gemini tool-calling loop, music control and speech synthesis, served over HTTP and WebSocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "anton %s\n", version)
		},
	}
}
