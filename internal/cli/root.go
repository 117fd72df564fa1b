package cli

import (
	"github.com/spf13/cobra"

	"buildbid/internal/model"
)

// NewRootCommand builds the bidctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	a := newApp(opts)

	root := &cobra.Command{
		Use:           "bidctl",
		Short:         "Command line client for the BuildBid API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().String("server", defaultServer, "API base URL")
	root.PersistentFlags().BoolVar(&a.json, "json", false, "print raw JSON")
	_ = a.v.BindPFlag(keyServer, root.PersistentFlags().Lookup("server"))

	root.AddCommand(
		newLoginCommand(a),
		newRegisterCommand(a),
		newLogoutCommand(a),
		newWhoAmICommand(a),
		newAdminCommand(a),
		newContractorCommand(a),
		newClientCommand(a),
		newCommentCommand(a),
		newNotificationsCommand(a),
		newPushCommand(a),
	)
	return root
}

func newAdminCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "admin",
		Short:             "Pipeline, people and task board administration",
		PersistentPreRunE: a.guard(model.RoleAdmin),
	}
	cmd.AddCommand(
		newProjectsCommand(a, model.RoleAdmin),
		newPipelineCommand(a),
		newRevenueCommand(a),
		newPeopleCommand(a, "contractors", "List contractors", a.listContractors),
		newPeopleCommand(a, "clients", "List clients", a.listClients),
		newPeopleCommand(a, "admins", "List admins", a.listAdmins),
		newColumnsCommand(a),
		newTicketsCommand(a, model.RoleAdmin),
	)
	return cmd
}

func newContractorCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "contractor",
		Short:             "Assigned projects, takeoff status and tasks",
		PersistentPreRunE: a.guard(model.RoleContractor),
	}
	cmd.AddCommand(
		newProjectsCommand(a, model.RoleContractor),
		newPipelineCommand(a),
		newTicketsCommand(a, model.RoleContractor),
	)
	return cmd
}

func newClientCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "client",
		Short:             "Your projects and tasks",
		PersistentPreRunE: a.guard(model.RoleClient),
	}
	cmd.AddCommand(
		newProjectsCommand(a, model.RoleClient),
		newTicketsCommand(a, model.RoleClient),
	)
	return cmd
}
