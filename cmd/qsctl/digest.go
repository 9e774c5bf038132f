package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Weekly digest controls",
}

var digestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile and hand off the digest now instead of waiting for Sunday",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		if err := apiClient().RunDigest(ctx); err != nil {
			return err
		}
		fmt.Println("digest run complete")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		c := apiClient()
		if !c.Healthy(ctx) {
			return fmt.Errorf("daemon not reachable at %s", addrFlag)
		}
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("daemon:        %s\n", color.GreenString("running"))
		fmt.Printf("contacts:      %d\n", st.Contacts)
		fmt.Printf("links queued:  %d (of %d saved)\n", st.PendingLinks, st.TotalLinks)
		if !st.NextDigestAt.IsZero() {
			fmt.Printf("next digest:   %s\n", st.NextDigestAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	digestCmd.AddCommand(digestRunCmd)
}
