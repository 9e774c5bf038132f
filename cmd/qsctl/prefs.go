package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Read and update preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current preferences",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		p, err := apiClient().GetPreferences(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("always send me a copy: %v\n", p.AlwaysSendCopy)
		return nil
	},
}

var prefsSetCopyCmd = &cobra.Command{
	Use:   "set-copy <true|false>",
	Short: "Toggle the always-send-me-a-copy preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", args[0])
		}

		ctx, cancel := cmdContext()
		defer cancel()

		p, err := apiClient().SetAlwaysSendCopy(ctx, v)
		if err != nil {
			return err
		}
		fmt.Printf("always send me a copy: %v\n", p.AlwaysSendCopy)
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCopyCmd)
}
