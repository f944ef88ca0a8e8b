package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tasukuchiba/channel_chat/internal/models"
)

func newMessagesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <channel-name>",
		Short: "shows the most recent messages of a channel, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := s.messages.ListRecent(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Date", "User", "Body"})
			table.SetAutoWrapText(false)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetBorder(false)
			for _, m := range messages {
				table.Append([]string{m.ID, m.Date, m.User.Name, m.Body})
			}
			table.Render()
			return nil
		},
	}
}

func newPostCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "post <channel-name> <body>...",
		Short: "posts a message as the anonymous user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := s.messages.Append(cmd.Context(), args[0], strings.Join(args[1:], " "), models.Anonymous)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
			return err
		},
	}
}
