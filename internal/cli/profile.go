package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agroconnect/marketplace-auth/internal/client/session"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

func (a *app) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}
			st := m.Status()
			if st.Identity == nil {
				return describe(session.ErrNotAuthenticated)
			}
			printProfile(cmd.OutOrStdout(), st.Identity)
			return nil
		},
	}
	cmd.AddCommand(a.profileUpdateCommand())
	return cmd
}

func (a *app) profileUpdateCommand() *cobra.Command {
	var name, phone, address, avatar string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Long: `Change profile fields. Only the flags that are given are sent, and an
empty value (for example --phone "") leaves that field as it is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update domain.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.DisplayName = domain.Some(name)
			}
			if flags.Changed("phone") {
				update.Phone = domain.Some(phone)
			}
			if flags.Changed("address") {
				update.Address = domain.Some(address)
			}
			if flags.Changed("avatar") {
				update.Avatar = domain.Some(avatar)
			}
			if update.Changes().Empty() {
				return errors.New("nothing to update; pass at least one of --name, --phone, --address, --avatar")
			}

			m, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}
			identity, err := m.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			printProfile(cmd.OutOrStdout(), identity)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&address, "address", "", "postal address")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	return cmd
}
