package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agroconnect/marketplace-auth/internal/client/authapi"
	"github.com/agroconnect/marketplace-auth/internal/client/session"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

type statusView struct {
	State    string           `json:"state"`
	Identity *domain.Identity `json:"identity,omitempty"`
}

func (a *app) whoamiCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Long: `Restore the stored session and confirm it with the server.

When the server cannot be reached the cached identity is shown with the
state "authenticated-stale".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}
			return writeStatus(cmd, m.Status(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func (a *app) revalidateCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "revalidate",
		Short: "Check whether the stored credential is close to expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Revalidate(cmd.Context()); err != nil {
				return describe(err)
			}
			return writeStatus(cmd, m.Status(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func writeStatus(cmd *cobra.Command, st session.Status, jsonOutput bool) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statusView{State: st.State.String(), Identity: st.Identity})
	}

	switch st.State {
	case session.Unauthenticated:
		fmt.Fprintln(w, "Not signed in")
		return nil
	case session.Expired:
		fmt.Fprintln(w, "Session expired, sign in again")
		return nil
	}
	printIdentity(w, st)
	return nil
}

// describe turns client failures into messages fit for a terminal.
func describe(err error) error {
	switch {
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return fmt.Errorf("cannot reach the server: %w", err)
	case errors.Is(err, session.ErrNotAuthenticated):
		return errors.New("not signed in; run `agroconnect login` first")
	case errors.Is(err, domain.ErrUnauthorized):
		return errors.New("session is no longer valid; run `agroconnect login` again")
	}

	var respErr *authapi.ResponseError
	if errors.As(err, &respErr) && respErr.Message != "" {
		return errors.New(respErr.Message)
	}
	return err
}
