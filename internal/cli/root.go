// Package cli implements the agroconnect command line client. Every command
// drives the session state machine against a persisted session file.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/agroconnect/marketplace-auth/internal/client/authapi"
	"github.com/agroconnect/marketplace-auth/internal/client/session"
	"github.com/agroconnect/marketplace-auth/internal/client/sessionstore"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
	"github.com/agroconnect/marketplace-auth/internal/pkg/config"
	"github.com/agroconnect/marketplace-auth/pkg/logger"
)

var version = "dev"

// SetVersion sets the string printed by the version command.
func SetVersion(v string) {
	version = v
}

type app struct {
	lookuper envconfig.Lookuper

	apiURL      string
	sessionFile string
	verbose     bool

	cfg *config.ClientConfig
	log zerolog.Logger
}

// Execute runs the CLI against the process environment.
func Execute() error {
	return NewRootCommand(envconfig.OsLookuper()).Execute()
}

// NewRootCommand builds the command tree. Configuration is read from l.
func NewRootCommand(l envconfig.Lookuper) *cobra.Command {
	a := &app{lookuper: l}

	root := &cobra.Command{
		Use:   "agroconnect",
		Short: "AgroConnect marketplace account client",
		Long: `agroconnect signs in to the AgroConnect marketplace and keeps the session
on disk between invocations.

Example usage:
  agroconnect register --email farmer@x.com --name "Farmer Joe"
  agroconnect login --email farmer@x.com
  agroconnect whoami
  agroconnect profile update --address "North Field"
  agroconnect logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "auth API base URL (default $AGROCONNECT_API_URL)")
	root.PersistentFlags().StringVar(&a.sessionFile, "session-file", "", "session file (default $AGROCONNECT_SESSION_FILE or the user config dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		a.registerCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.revalidateCommand(),
		a.profileCommand(),
		a.forgotPasswordCommand(),
		versionCommand(),
	)
	return root
}

func (a *app) init(ctx context.Context, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadClient(ctx, a.lookuper)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.sessionFile != "" {
		cfg.SessionFile = a.sessionFile
	}
	if cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locate config dir: %w", err)
		}
		cfg.SessionFile = filepath.Join(dir, "agroconnect", "session.json")
	}

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{Level: level, Pretty: true, Output: stderr})
	a.log.Debug().Str("api_url", cfg.APIURL).Str("session_file", cfg.SessionFile).Msg("configuration loaded")
	return nil
}

func (a *app) client() *authapi.Client {
	opts := []authapi.Option{authapi.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout})}
	if a.cfg.OfflineCheck {
		check, err := newDialCheck(a.cfg.APIURL, dialTimeout)
		if err != nil {
			a.log.Warn().Err(err).Msg("offline check disabled")
		} else {
			opts = append(opts, authapi.WithConnectivity(check))
		}
	}
	return authapi.New(a.cfg.APIURL, opts...)
}

func (a *app) machine() *session.Machine {
	return session.New(
		a.client(),
		sessionstore.NewFileStore(a.cfg.SessionFile),
		session.WithLogger(a.log),
		session.WithRevalidateWindow(a.cfg.RevalidateWindow),
	)
}

// restore bootstraps a machine and waits for it to settle.
func (a *app) restore(ctx context.Context) (*session.Machine, error) {
	m := a.machine()
	done, err := m.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return m, nil
}

func printIdentity(w io.Writer, st session.Status) {
	fmt.Fprintf(w, "state:   %s\n", st.State)
	if st.Identity == nil {
		return
	}
	printProfile(w, st.Identity)
}

func printProfile(w io.Writer, identity *domain.Identity) {
	fmt.Fprintf(w, "id:      %s\n", identity.ID)
	fmt.Fprintf(w, "name:    %s\n", identity.DisplayName)
	fmt.Fprintf(w, "email:   %s\n", identity.Email)
	fmt.Fprintf(w, "role:    %s\n", identity.Role)
	if identity.Phone != "" {
		fmt.Fprintf(w, "phone:   %s\n", identity.Phone)
	}
	if identity.Address != "" {
		fmt.Fprintf(w, "address: %s\n", identity.Address)
	}
}
