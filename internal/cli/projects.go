package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"buildbid/internal/apiclient"
	"buildbid/internal/collection"
	"buildbid/internal/model"
	"buildbid/internal/workflow"
)

func parseID(raw, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", label, raw)
	}
	return id, nil
}

func optionalID(raw, label string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw, label)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func projectFields(p model.Project) []string {
	return []string{p.Name, p.ContractorName, p.Description, string(p.Status)}
}

func writeProjects(w io.Writer, projects []model.Project) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tHOLD\tCOLUMN\tVALUATION\tDEADLINE")
	for _, p := range projects {
		deadline := "-"
		if p.Deadline != nil {
			deadline = p.Deadline.Format(time.DateOnly)
		}
		hold := string(p.Hold)
		if hold == "" {
			hold = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Status, hold, p.Column(), formatCents(p.ValuationCents), deadline)
	}
	return tw.Flush()
}

func (a *app) printChange(w io.Writer, change *apiclient.StatusChange) error {
	return a.emit(w, change, func(w io.Writer) error {
		p := change.Project
		if change.Change == nil {
			_, err := fmt.Fprintf(w, "%s unchanged: %s\n", p.Name, p.Status)
			return err
		}
		_, err := fmt.Fprintf(w, "%s is now %s (column %s)\n", p.Name, p.Status, p.Column())
		return err
	})
}

func newProjectsCommand(a *app, role model.Role) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Projects visible to you",
	}
	cmd.AddCommand(newProjectListCommand(a), newProjectGetCommand(a))

	switch role {
	case model.RoleAdmin:
		cmd.AddCommand(
			newProjectCreateCommand(a),
			newProjectUpdateCommand(a),
			newProjectDeleteCommand(a),
			newProjectStatusCommand(a),
			newProjectHoldCommand(a),
			newProjectMoveCommand(a),
			newProjectHistoryCommand(a),
			newProjectUploadCommand(a),
		)
	case model.RoleContractor:
		cmd.AddCommand(newProjectStatusCommand(a))
	}
	return cmd
}

func newProjectListCommand(a *app) *cobra.Command {
	var filter, status, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := apiclient.ProjectFilter{Query: search}
			if status != "" {
				s, err := workflow.ParseStatus(status)
				if err != nil {
					return err
				}
				f.Status = s
			}

			projects := collection.New(func(ctx context.Context) ([]model.Project, error) {
				return a.api.ListProjects(ctx, f)
			}, func(p model.Project) string { return p.ID.String() }, projectFields)
			if err := projects.Load(cmd.Context()); err != nil {
				return err
			}
			items := projects.Filter(filter)
			return a.emit(cmd.OutOrStdout(), items, func(w io.Writer) error {
				return writeProjects(w, items)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "query", "q", "", "server-side name search")
	cmd.Flags().StringVar(&status, "status", "", "only projects in this status")
	cmd.Flags().StringVar(&filter, "filter", "", "local case-insensitive filter over name, contractor, description and status")
	return cmd
}

func newProjectGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			p, err := a.api.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), p, func(w io.Writer) error {
				if err := writeProjects(w, []model.Project{*p}); err != nil {
					return err
				}
				for _, file := range [][2]string{{"blueprints", p.BlueprintsURL}, {"takeoff", p.TakeoffURL}, {"proposal", p.ProposalURL}} {
					if file[1] != "" {
						fmt.Fprintf(w, "%s: %s\n", file[0], file[1])
					}
				}
				return nil
			})
		},
	}
}

func newProjectCreateCommand(a *app) *cobra.Command {
	var in apiclient.ProjectInput
	var contractorID, clientID, deadline string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project awaiting approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.ContractorID, err = optionalID(contractorID, "contractor"); err != nil {
				return err
			}
			if in.ClientID, err = optionalID(clientID, "client"); err != nil {
				return err
			}
			if deadline != "" {
				d, err := time.Parse(time.DateOnly, deadline)
				if err != nil {
					return fmt.Errorf("deadline must be YYYY-MM-DD: %w", err)
				}
				in.Deadline = &d
			}
			p, err := a.api.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created %s (%s)\n", p.ID, p.Status)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "project name")
	f.StringVar(&in.ContractorName, "contractor-name", "", "contractor display name")
	f.StringVar(&contractorID, "contractor", "", "assigned contractor id")
	f.StringVar(&clientID, "client", "", "client id")
	f.Int64Var(&in.ValuationCents, "valuation", 0, "valuation in cents")
	f.StringVar(&deadline, "deadline", "", "bid deadline (YYYY-MM-DD)")
	f.StringVar(&in.Description, "description", "", "description")
	f.BoolVar(&in.HighIntent, "high-intent", false, "flag as high intent")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectUpdateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			var patch apiclient.ProjectPatch
			f := cmd.Flags()
			if f.Changed("name") {
				v, _ := f.GetString("name")
				patch.Name = &v
			}
			if f.Changed("description") {
				v, _ := f.GetString("description")
				patch.Description = &v
			}
			if f.Changed("valuation") {
				v, _ := f.GetInt64("valuation")
				patch.ValuationCents = &v
			}
			if f.Changed("contractor") {
				v, _ := f.GetString("contractor")
				patch.ContractorID = &v
			}
			if f.Changed("high-intent") {
				v, _ := f.GetBool("high-intent")
				patch.HighIntent = &v
			}
			p, err := a.api.UpdateProject(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), p, func(w io.Writer) error {
				return writeProjects(w, []model.Project{*p})
			})
		},
	}
	f := cmd.Flags()
	f.String("name", "", "project name")
	f.String("description", "", "description")
	f.Int64("valuation", 0, "valuation in cents")
	f.String("contractor", "", "assigned contractor id, empty to unassign")
	f.Bool("high-intent", false, "flag as high intent")
	return cmd
}

func newProjectDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := a.api.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return err
		},
	}
}

func newProjectStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move a project to another status",
		Long:  "Statuses: " + joinStatuses(workflow.Statuses()),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			status, err := workflow.ParseStatus(args[1])
			if err != nil {
				return err
			}
			change, err := a.api.SetStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			return a.printChange(cmd.OutOrStdout(), change)
		},
	}
}

func joinStatuses(statuses []workflow.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func newProjectHoldCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hold ID [HOLD]",
		Short: "Set or clear the pipeline hold",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			var hold workflow.Hold
			if len(args) == 2 {
				if hold, err = workflow.ParseHold(args[1]); err != nil {
					return err
				}
			}
			change, err := a.api.SetHold(cmd.Context(), id, hold)
			if err != nil {
				return err
			}
			return a.printChange(cmd.OutOrStdout(), change)
		},
	}
}

// newProjectMoveCommand drops a project into a pipeline column. The local board only changes after the server accepts the move.
func newProjectMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID COLUMN",
		Short: "Move a project to a pipeline column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			column, err := workflow.ParseColumn(args[1])
			if err != nil {
				return err
			}

			board, err := a.loadPipeline(cmd.Context())
			if err != nil {
				return err
			}
			moved, err := board.Move(cmd.Context(), id.String(), column, func(ctx context.Context, p model.Project) (model.Project, error) {
				change, err := a.api.MoveToColumn(ctx, p.ID, column)
				if err != nil {
					return p, err
				}
				return *change.Project, nil
			})
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), moved, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s moved to %s (%s)\n", moved.Name, column, moved.Status)
				return err
			})
		},
	}
}

func newProjectHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show status and hold changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			rows, err := a.api.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "WHEN\tFROM\tTO\tHOLD\tBY")
				for _, r := range rows {
					from := "-"
					if r.FromStatus != nil {
						from = string(*r.FromStatus)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.CreatedAt.Format(time.RFC3339), from, r.ToStatus, r.ToHold, r.ChangedBy)
				}
				return tw.Flush()
			})
		},
	}
}

func newProjectUploadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "upload ID KIND FILE",
		Short:     "Attach blueprints, a takeoff or a proposal",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"blueprints", "takeoff", "proposal"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := a.api.UploadFile(cmd.Context(), id, args[1], filepath.Base(args[2]), f)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Uploaded %s for %s\n", args[1], p.Name)
				return err
			})
		},
	}
}

func (a *app) loadPipeline(ctx context.Context) (*workflow.Board[workflow.Column, model.Project], error) {
	lanes, err := a.api.Pipeline(ctx, apiclient.ProjectFilter{})
	if err != nil {
		return nil, err
	}
	var projects []model.Project
	for _, lane := range lanes {
		projects = append(projects, lane.Projects...)
	}
	board := workflow.NewBoard[workflow.Column, model.Project](workflow.Columns(), func(p model.Project) string {
		return p.ID.String()
	})
	if err := board.Place(projects, model.Project.Column); err != nil {
		return nil, err
	}
	return board, nil
}

func newPipelineCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Show projects grouped by pipeline column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := a.loadPipeline(cmd.Context())
			if err != nil {
				return err
			}
			lanes := make([]model.PipelineLane, 0, len(board.Columns()))
			for _, col := range board.Columns() {
				lanes = append(lanes, model.PipelineLane{Column: col, Phase: col.Phase(), Projects: board.Lane(col)})
			}
			return a.emit(cmd.OutOrStdout(), lanes, func(w io.Writer) error {
				for _, lane := range lanes {
					fmt.Fprintf(w, "== %s (%s) %d\n", lane.Column, lane.Phase, len(lane.Projects))
					for _, p := range lane.Projects {
						fmt.Fprintf(w, "   %s  %s  %s\n", p.ID, p.Name, formatCents(p.ValuationCents))
					}
				}
				return nil
			})
		},
	}
}

func newRevenueCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revenue",
		Short: "Won and pipeline totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := a.api.Revenue(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), sum, func(w io.Writer) error {
				fmt.Fprintf(w, "Projects: %d\nWon: %s\nPipeline: %s\n", sum.ProjectCount, formatCents(sum.WonCents), formatCents(sum.PipelineCents))
				for _, m := range sum.ByMonth {
					fmt.Fprintf(w, "  %s  %s\n", m.Month, formatCents(m.WonCents))
				}
				return nil
			})
		},
	}
}
