package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisper/internal/domain"
)

// send <peer> <message>: encrypt and send a message to <peer>.
func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSelf(); err != nil {
				return err
			}
			peer, err := domain.ParseSessionAddress(args[0])
			if err != nil {
				return err
			}

			if err := appCtx.Messages.SendMessage(cmd.Context(), peer, args[1]); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
	return cmd
}
