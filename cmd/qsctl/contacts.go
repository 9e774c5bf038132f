package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage the recipient list",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		list, err := apiClient().ListContacts(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no contacts yet")
			return nil
		}
		for _, c := range list {
			status := color.YellowString("pending")
			if c.Confirmed {
				status = color.GreenString("confirmed")
			}
			fmt.Printf("%s  %s <%s>  %s\n", c.ID, c.Name, c.Email, status)
		}
		return nil
	},
}

var contactsAddCmd = &cobra.Command{
	Use:   "add <name> <email>",
	Short: "Add a contact and send the confirmation mail",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		c, err := apiClient().AddContact(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("added %s (%s), confirmation mail requested\n", c.Name, c.ID)
		return nil
	},
}

var contactsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		if err := apiClient().DeleteContact(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	},
}

var contactsResendCmd = &cobra.Command{
	Use:   "resend <id>",
	Short: "Resend the confirmation mail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		if err := apiClient().ResendConfirmation(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("confirmation mail requested")
		return nil
	},
}

var contactsConfirmCmd = &cobra.Command{
	Use:   "confirm <id>",
	Short: "Mark a contact confirmed (stands in for the mail click-through)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		c, err := apiClient().MarkConfirmed(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s is now confirmed\n", c.Name)
		return nil
	},
}

func init() {
	contactsCmd.AddCommand(contactsListCmd, contactsAddCmd, contactsRmCmd, contactsResendCmd, contactsConfirmCmd)
}
