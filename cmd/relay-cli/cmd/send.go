package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/relay/internal/relay"
)

var sendTo string

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send a chat message through the relay",
	Long: `Authenticates and sends one message. Without --to the message goes
into your own conversation; with --to (admins only) it is delivered into the
target user's conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		conn, err := dialAndAuth(nil)
		if err != nil {
			return err
		}
		defer conn.Close()

		if sendTo != "" {
			err = writeEvent(conn, relay.EventMessageAdmin, relay.AdminMessagePayload{
				ToUserID: sendTo,
				Text:     text,
			})
		} else {
			err = writeEvent(conn, relay.EventMessageUser, relay.UserMessagePayload{
				Text: text,
			})
		}
		if err != nil {
			return err
		}

		// Our own message comes back on the conversation room; reading it
		// confirms the relay accepted and fanned it out.
		var env relay.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return fmt.Errorf("no delivery confirmation: %w", err)
		}
		fmt.Println("sent")
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "target user id (admins only)")
	rootCmd.AddCommand(sendCmd)
}
