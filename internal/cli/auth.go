package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"buildbid/internal/apiclient"
	"buildbid/internal/model"
)

func passwordFlag(cmd *cobra.Command, flag string) (string, error) {
	pw, _ := cmd.Flags().GetString(flag)
	if pw == "" {
		pw = os.Getenv("BIDCTL_PASSWORD")
	}
	if pw == "" {
		return "", fmt.Errorf("--%s or BIDCTL_PASSWORD is required", flag)
	}
	return pw, nil
}

func newLoginCommand(a *app) *cobra.Command {
	var email string
	var admin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(cmd, "password")
			if err != nil {
				return err
			}
			var s *apiclient.Session
			if admin {
				s, err = a.api.LoginAdmin(cmd.Context(), email, pw)
			} else {
				s, err = a.api.Login(cmd.Context(), email, pw)
			}
			if err != nil {
				return err
			}
			if err := a.saveSession(s); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", s.Email, s.Role)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().String("password", "", "account password (or BIDCTL_PASSWORD)")
	cmd.Flags().BoolVar(&admin, "admin", false, "use the admin login")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var in apiclient.RegisterInput
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a contractor or client account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(cmd, "password")
			if err != nil {
				return err
			}
			in.Password = pw
			in.Role = model.Role(role)
			if in.Role != model.RoleContractor && in.Role != model.RoleClient {
				return fmt.Errorf("role must be %s or %s", model.RoleContractor, model.RoleClient)
			}
			s, err := a.api.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := a.saveSession(s); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", s.Email, s.Role)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.Email, "email", "", "account email")
	f.String("password", "", "account password (or BIDCTL_PASSWORD)")
	f.StringVar(&role, "role", string(model.RoleContractor), "contractor or client")
	f.StringVar(&in.Company, "company", "", "company name")
	f.StringVar(&in.Specialty, "specialty", "", "trade specialty")
	f.IntVar(&in.YearsExperience, "years", 0, "years of experience")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.OfficeAddress, "office", "", "office address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.api.Logout()
			if err := a.saveSession(nil); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

func newWhoAmICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Show the logged-in profile",
		Args:    cobra.NoArgs,
		PreRunE: a.loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s <%s> %s\n", u.Name, u.Email, u.Role)
				return err
			})
		},
	}
}
