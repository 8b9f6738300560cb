package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Build information set by the linker.
type Build struct {
	Version string
	Date    string
}

// RootCommand builds the command tree bound to a.
func (a *App) RootCommand(build Build) *cobra.Command {
	root := &cobra.Command{
		Use:   "mycraft",
		Short: "MyCraft marketplace client",
		Long: `A command-line client for the MyCraft craftsmen marketplace.

Browse and book services, manage your listings as a craftsman and chat
with customers and contractors.

Quick Start:
  mycraft login                      # Sign in
  mycraft services list --trade PAINTER
  mycraft chat watch <conversation-id>
  mycraft shell                      # Interactive mode`,
		Version:       fmt.Sprintf("%s (built: %s)", orNA(build.Version), orNA(build.Date)),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.Flags())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	a.opts.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.profileCmd(),
		a.becomeCraftsmanCmd(),
		a.servicesCmd(),
		a.bookingsCmd(),
		a.reviewCmd(),
		a.overviewCmd(),
		a.chatCmd(),
		a.offersCmd(),
		a.openCmd(),
		a.shellCmd(build),
	)
	return root
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Execute runs the client with args and returns the process exit code.
func Execute(ctx context.Context, build Build, args []string, in io.Reader, out, errOut io.Writer) int {
	app := NewApp(in, out, errOut)
	root := app.RootCommand(build)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	app.Close()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}
