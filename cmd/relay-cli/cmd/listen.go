package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/relay"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Connect to the relay and print incoming events",
	Long: `Connects to the relay, authenticates with --token, and prints every
event the server pushes: the history replay, the admin conversation overview,
and live messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := dialAndAuth(printEvent)
		if err != nil {
			return err
		}
		defer conn.Close()

		fmt.Println("authenticated; listening (Ctrl-C to quit)")
		for {
			var env relay.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return fmt.Errorf("connection closed: %w", err)
			}
			printEvent(env)
		}
	},
}

func printEvent(env relay.Envelope) {
	switch env.Event {
	case relay.EventMessage:
		var msg domain.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		at := time.UnixMilli(msg.At).Format(time.TimeOnly)
		fmt.Printf("[%s] %s (%s): %s\n", at, msg.UserID, msg.From, msg.Text)
	case relay.EventHistory:
		var h relay.HistoryPayload
		if err := json.Unmarshal(env.Data, &h); err != nil {
			return
		}
		fmt.Printf("-- history for %s (%d messages) --\n", h.UserID, len(h.Items))
		for _, msg := range h.Items {
			at := time.UnixMilli(msg.At).Format(time.TimeOnly)
			fmt.Printf("[%s] %s: %s\n", at, msg.From, msg.Text)
		}
	case relay.EventConversations:
		var list relay.ConversationsPayload
		if err := json.Unmarshal(env.Data, &list); err != nil {
			return
		}
		fmt.Printf("-- %d open conversations --\n", len(list))
		for _, entry := range list {
			if entry.Last != nil {
				fmt.Printf("%s: %s\n", entry.UserID, entry.Last.Text)
			} else {
				fmt.Println(entry.UserID)
			}
		}
	default:
		fmt.Printf("%s %s\n", env.Event, string(env.Data))
	}
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
