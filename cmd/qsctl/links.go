package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joshnesbit/quietsend/internal/httpapi"
)

var (
	linkTitleFlag string
	linkNoteFlag  string
	linkCopyFlag  bool
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Inspect and append to the saved-link queue",
}

var linksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved links",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		list, err := apiClient().ListLinks(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no links saved yet")
			return nil
		}
		for _, l := range list {
			state := color.YellowString("queued")
			if l.Delivered() {
				state = color.GreenString("delivered")
			}
			fmt.Printf("%s  %s  %s  -> %s  %s\n", l.ID, state, l.Title, l.ContactID, l.URL)
		}
		return nil
	},
}

var linksSaveCmd = &cobra.Command{
	Use:   "save <contact-id> <url>",
	Short: "Queue a page for the next digest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		req := httpapi.SaveLinkRequest{
			ContactID: args[0],
			URL:       args[1],
			Title:     linkTitleFlag,
			Note:      linkNoteFlag,
		}
		if cmd.Flags().Changed("copy") {
			req.SendCopyToSelf = &linkCopyFlag
		}
		entry, err := apiClient().SaveLink(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("queued %s for Sunday's digest\n", entry.ID)
		return nil
	},
}

func init() {
	linksSaveCmd.Flags().StringVar(&linkTitleFlag, "title", "", "page title")
	linksSaveCmd.Flags().StringVar(&linkNoteFlag, "note", "", "optional note for the recipient")
	linksSaveCmd.Flags().BoolVar(&linkCopyFlag, "copy", false, "send a copy to yourself (default: current preference)")
	linksCmd.AddCommand(linksListCmd, linksSaveCmd)
}
