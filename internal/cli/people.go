package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"buildbid/internal/collection"
	"buildbid/internal/model"
)

type listUsersFunc func(ctx context.Context, query string) ([]model.User, error)

func (a *app) listContractors(ctx context.Context, q string) ([]model.User, error) {
	return a.api.ListContractors(ctx, q)
}

func (a *app) listClients(ctx context.Context, q string) ([]model.User, error) {
	return a.api.ListClients(ctx, q)
}

func (a *app) listAdmins(ctx context.Context, _ string) ([]model.User, error) {
	return a.api.ListAdmins(ctx)
}

func userFields(u model.User) []string {
	return []string{u.Name, u.Email, u.Company, u.Specialty}
}

func newPeopleCommand(a *app, use, short string, list listUsersFunc) *cobra.Command {
	var search, filter string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			people := collection.New(func(ctx context.Context) ([]model.User, error) {
				return list(ctx, search)
			}, func(u model.User) string { return u.ID.String() }, userFields)
			if err := people.Load(cmd.Context()); err != nil {
				return err
			}
			items := people.Filter(filter)
			return a.emit(cmd.OutOrStdout(), items, func(w io.Writer) error {
				return writeUsers(w, items)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "query", "q", "", "server-side search")
	cmd.Flags().StringVar(&filter, "filter", "", "local case-insensitive filter over name, email, company and specialty")
	return cmd
}

func writeUsers(w io.Writer, users []model.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCOMPANY\tSPECIALTY")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Company, u.Specialty)
	}
	return tw.Flush()
}
