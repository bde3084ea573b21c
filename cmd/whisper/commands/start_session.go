package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisper/internal/domain"
)

// startSessionCmd runs X3DH against a peer's pre-key bundle and persists the
// pending session. Sending to a peer without a session does this implicitly.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <peer>",
		Short: "Establish a secure session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			peer, err := domain.ParseSessionAddress(args[0])
			if err != nil {
				return err
			}

			if err := appCtx.Sessions.InitiateSession(cmd.Context(), peer); err != nil {
				return fmt.Errorf("starting session with %q: %w", peer, err)
			}
			fmt.Printf("Session created with %s\n", peer)
			return nil
		},
	}
}
