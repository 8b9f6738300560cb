package cli

import (
	"errors"
	"fmt"

	"github.com/atinyakov/mycraft/internal/client/router"
	"github.com/atinyakov/mycraft/internal/models"
	"github.com/spf13/cobra"
)

func (a *App) registerCmd() *cobra.Command {
	var r models.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.Register, nil); err != nil {
				return err
			}
			if err := a.promptIfEmpty(&r.Username, "Username: "); err != nil {
				return err
			}
			if err := a.promptIfEmpty(&r.Email, "Email: "); err != nil {
				return err
			}
			if err := a.promptIfEmpty(&r.Password, "Password: "); err != nil {
				return err
			}
			u, err := a.session.Register(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			a.toasts.Success(fmt.Sprintf("Account %s created. You can log in now.", u.Username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&r.Username, "username", "u", "", "account name")
	cmd.Flags().StringVar(&r.Email, "email", "", "contact email")
	cmd.Flags().StringVarP(&r.Password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.promptIfEmpty(&creds.Username, "Username: "); err != nil {
				return err
			}
			if err := a.promptIfEmpty(&creds.Password, "Password: "); err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), creds); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			loc, err := a.router.AfterLogin()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", titleStyle.Render(a.session.CurrentUser().Username))
			if loc.Route.Name != router.Home {
				fmt.Fprintf(a.out, "Continue at %s\n", loc.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.chat.Stop()
			a.session.Logout(cmd.Context())
			_, err := a.router.NavigateTo(router.Home, nil)
			fmt.Fprintln(a.out, "Logged out")
			return err
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.Profile, nil); err != nil {
				return err
			}
			printUser(a.out, a.session.CurrentUser())
			return nil
		},
	}
}

func profileFlags(cmd *cobra.Command, p *models.ProfileUpdate) {
	cmd.Flags().StringVar(&p.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&p.City, "city", "", "city")
	cmd.Flags().StringVar(&p.Bio, "bio", "", "short description")
	cmd.Flags().StringVar(&p.StreetAddress, "street", "", "street address")
	cmd.Flags().StringVar(&p.ZipCode, "zip", "", "zip code")
}

func (a *App) profileCmd() *cobra.Command {
	var upd models.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.Profile, nil); err != nil {
				return err
			}
			if upd == (models.ProfileUpdate{}) {
				return errors.New("nothing to update: pass at least one field flag")
			}
			if err := a.session.UpdateProfile(cmd.Context(), upd); err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
			a.toasts.Success("Profile updated.")
			printUser(a.out, a.session.CurrentUser())
			return nil
		},
	}
	profileFlags(cmd, &upd)
	return cmd
}

func (a *App) becomeCraftsmanCmd() *cobra.Command {
	var p models.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "become-craftsman",
		Short: "Upgrade the account to offer services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.BecomeCraftsman, nil); err != nil {
				return err
			}
			if a.session.IsCraftsman() {
				fmt.Fprintln(a.out, "You are already a craftsman")
				return nil
			}
			if err := a.promptIfEmpty(&p.CompanyName, "Company name: "); err != nil {
				return err
			}
			if err := a.promptIfEmpty(&p.City, "City: "); err != nil {
				return err
			}
			if err := a.session.BecomeCraftsman(cmd.Context(), p); err != nil {
				return fmt.Errorf("become craftsman: %w", err)
			}
			a.toasts.Success("Welcome aboard, you can now offer services.")
			return nil
		},
	}
	profileFlags(cmd, &p)
	return cmd
}
