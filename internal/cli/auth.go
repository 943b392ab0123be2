package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

func (a *app) registerCommand() *cobra.Command {
	var reg domain.Registration
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Role = domain.Role(role)
			identity, err := a.machine().Register(cmd.Context(), reg)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s <%s> (%s)\n", identity.DisplayName, identity.Email, identity.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password")
	cmd.Flags().StringVar(&reg.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleProducer), "producer or consumer")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&reg.Address, "address", "", "postal address")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) loginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := a.machine().Login(cmd.Context(), email, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s> (%s)\n", identity.DisplayName, identity.Email, identity.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.machine().Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *app) forgotPasswordCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().ForgotPassword(cmd.Context(), email); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a password reset email has been sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
