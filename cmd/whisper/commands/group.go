package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisper/internal/domain"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Send to a group with sender keys",
	}

	var members []string
	distribute := &cobra.Command{
		Use:   "distribute <group>",
		Short: "Send your sender key for <group> to every member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSelf(); err != nil {
				return err
			}
			addrs, err := parseMembers(members)
			if err != nil {
				return err
			}
			if err := appCtx.Groups.DistributeSenderKey(cmd.Context(), args[0], addrs); err != nil {
				return err
			}
			fmt.Printf("Sender key for %s sent to %d members\n", args[0], len(addrs))
			return nil
		},
	}

	send := &cobra.Command{
		Use:   "send <group> <message>",
		Short: "Encrypt a message once and post it to every member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSelf(); err != nil {
				return err
			}
			addrs, err := parseMembers(members)
			if err != nil {
				return err
			}
			if err := appCtx.Groups.SendGroupMessage(cmd.Context(), args[0], addrs, args[1]); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}

	for _, c := range []*cobra.Command{distribute, send} {
		c.Flags().StringSliceVarP(&members, "members", "m", nil, "member addresses, name or name.device")
		_ = c.MarkFlagRequired("members")
		cmd.AddCommand(c)
	}
	return cmd
}

func parseMembers(raw []string) ([]domain.SessionAddress, error) {
	out := make([]domain.SessionAddress, 0, len(raw))
	for _, r := range raw {
		a, err := domain.ParseSessionAddress(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
