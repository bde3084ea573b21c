package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisper/internal/app"
)

func initCmd() *cobra.Command {
	var (
		name   string
		device uint32
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			_, fp, err := appCtx.Identity.GenerateIdentity(passphrase)
			if err != nil {
				return err
			}

			cfg.Address.Name = name
			cfg.Address.DeviceID = device
			if err := app.SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("Identity created for %s.\nFingerprint: %s\n", cfg.Address, fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "your name on the relay")
	cmd.Flags().Uint32Var(&device, "device", 1, "this device's id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
