package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Publish your pre-key bundle to the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSelf(); err != nil {
				return err
			}

			// Rotate the signed pre-key and add a batch of one-time pre-keys.
			if _, _, err := appCtx.PreKeys.GenerateAndStorePreKeys(count); err != nil {
				return err
			}

			bundle, err := appCtx.PreKeys.LoadPreKeyBundle(appCtx.Self())
			if err != nil {
				return err
			}
			if err := appCtx.Relay.RegisterPreKeyBundle(cmd.Context(), bundle); err != nil {
				return err
			}

			fmt.Printf("Registered %s with %d one-time pre-keys\n", bundle.Address, len(bundle.PreKeys))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of one-time pre-keys to add")
	return cmd
}
