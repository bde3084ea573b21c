package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// recv: fetch, decrypt and ack queued messages.
func recvCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt your queued messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSelf(); err != nil {
				return err
			}

			msgs, err := appCtx.Messages.ReceiveMessages(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				at := time.Unix(m.Timestamp, 0).Format(time.DateTime)
				from := m.From.String()
				if m.GroupID != "" {
					from = m.GroupID + "/" + from
				}
				switch {
				case m.Reverify:
					fmt.Printf("%s [%s] identity changed, verify their fingerprint and run `trust reset %s`\n", at, from, m.From)
				case m.Err != nil:
					fmt.Printf("%s [%s] undecryptable message: %v\n", at, from, m.Err)
				default:
					fmt.Printf("%s [%s] %s\n", at, from, m.Plaintext)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "fetch at most this many envelopes (0 = all)")
	return cmd
}
