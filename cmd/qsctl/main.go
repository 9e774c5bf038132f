package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshnesbit/quietsend/internal/config"
	"github.com/joshnesbit/quietsend/internal/httpapi"
)

var addrFlag string

var rootCmd = &cobra.Command{
	Use:           "qsctl",
	Short:         "Control the Quiet Send daemon",
	Long:          "qsctl talks to the quietsendd HTTP API: manage contacts, inspect the saved-link queue, flip preferences and trigger digest runs.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", config.DefaultListen, "daemon http api address")
	rootCmd.AddCommand(contactsCmd, linksCmd, prefsCmd, digestCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiClient() *httpapi.Client {
	return httpapi.NewClient(addrFlag)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}
