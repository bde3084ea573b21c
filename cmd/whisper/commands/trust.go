package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisper/internal/domain"
)

func trustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Manage trusted peer identity keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset <peer>",
		Short: "Forget a peer's identity key so its next handshake is accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := domain.ParseSessionAddress(args[0])
			if err != nil {
				return err
			}
			if err := appCtx.ForgetIdentity(peer); err != nil {
				return err
			}
			fmt.Printf("Forgot identity key for %s\n", peer)
			return nil
		},
	})
	return cmd
}
