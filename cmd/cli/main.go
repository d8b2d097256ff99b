package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"apexcarousel/pkg/utils"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cl := &client{}

	root := &cobra.Command{
		Use:           "apex",
		Short:         "ApexCarousel command line client",
		Long:          "Turn articles and notes into LinkedIn carousels from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cl.BaseURL, "api", envOr("APEX_API_URL", defaultBaseURL), "API base URL")
	root.PersistentFlags().StringVar(&cl.TokenPath, "token-file", defaultTokenPath(), "token file path")

	root.AddCommand(
		newAuthCmd(cl),
		newFetchCmd(cl),
		newGenerateCmd(cl),
		newHistoryCmd(cl),
		newBrandCmd(cl),
		newVoiceCmd(cl),
		newWatchCmd(cl),
	)
	return root
}

func defaultTokenPath() string {
	return filepath.Join(utils.ConfigDir(), "token.json")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
