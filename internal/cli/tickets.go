package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"buildbid/internal/apiclient"
	"buildbid/internal/model"
	"buildbid/internal/workflow"
)

func newColumnsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Task board columns",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List columns in board order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cols, err := a.api.ListColumns(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), cols, func(w io.Writer) error {
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "POS\tID\tTITLE")
					for _, c := range cols {
						fmt.Fprintf(tw, "%d\t%s\t%s\n", c.Position, c.ID, c.Title)
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "create TITLE",
			Short: "Append a column",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				col, err := a.api.CreateColumn(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), col, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created column %s (%s)\n", col.Title, col.ID)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete an empty column",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "column")
				if err != nil {
					return err
				}
				if err := a.api.DeleteColumn(cmd.Context(), id); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted column %s\n", id)
				return err
			},
		},
	)
	return cmd
}

func writeTickets(w io.Writer, tickets []model.Ticket) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tTASK\tTRACKED")
	now := time.Now()
	for _, t := range tickets {
		task := string(t.TaskType)
		if task == "" {
			task = "-"
		}
		tracked := t.Elapsed(now).Truncate(time.Second).String()
		if t.TimerRunning() {
			tracked += " (running)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Type, task, tracked)
	}
	return tw.Flush()
}

func newTicketsCommand(a *app, role model.Role) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket"},
		Short:   "Task board tickets",
	}
	cmd.AddCommand(newTicketListCommand(a))
	if role == model.RoleAdmin {
		cmd.AddCommand(newTicketCreateCommand(a), newTicketMoveCommand(a), newTicketDeleteCommand(a))
	}
	if role == model.RoleAdmin || role == model.RoleContractor {
		cmd.AddCommand(newTimerCommand(a))
	}
	return cmd
}

func newTicketListCommand(a *app) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			columnID, err := optionalID(column, "column")
			if err != nil {
				return err
			}
			tickets, err := a.api.ListTickets(cmd.Context(), columnID)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), tickets, func(w io.Writer) error {
				return writeTickets(w, tickets)
			})
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "only tickets in this column")
	return cmd
}

func newTicketCreateCommand(a *app) *cobra.Command {
	var in apiclient.TicketInput
	var kind, task, column, contractor, client, project string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Type = model.TicketType(kind)
			in.TaskType = model.TaskType(task)
			var err error
			if in.ColumnID, err = optionalID(column, "column"); err != nil {
				return err
			}
			if in.ContractorID, err = optionalID(contractor, "contractor"); err != nil {
				return err
			}
			if in.ClientID, err = optionalID(client, "client"); err != nil {
				return err
			}
			if in.ProjectID, err = optionalID(project, "project"); err != nil {
				return err
			}
			t, err := a.api.CreateTicket(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), t, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created ticket %s\n", t.ID)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "ticket title")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringVar(&kind, "type", string(model.TicketInternal), "internal, client or contractor")
	f.StringVar(&task, "task", "", "quote_verification, price_negotiation or required_documentation")
	f.StringVar(&column, "column", "", "column id (defaults to the first column)")
	f.StringVar(&contractor, "contractor", "", "contractor id")
	f.StringVar(&client, "client", "", "client id")
	f.StringVar(&project, "project", "", "project id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// newTicketMoveCommand moves a ticket between task board columns, updating the local board only after the server confirms.
func newTicketMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID COLUMN_ID",
		Short: "Move a ticket to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "ticket")
			if err != nil {
				return err
			}
			target, err := parseID(args[1], "column")
			if err != nil {
				return err
			}

			board, err := a.loadTaskBoard(cmd.Context())
			if err != nil {
				return err
			}
			moved, err := board.Move(cmd.Context(), id.String(), target.String(), func(ctx context.Context, t model.Ticket) (model.Ticket, error) {
				updated, err := a.api.MoveTicket(ctx, t.ID, target)
				if err != nil {
					return t, err
				}
				return *updated, nil
			})
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), moved, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Moved %s to column %s (%d tickets there now)\n", moved.Title, target, len(board.Lane(target.String())))
				return err
			})
		},
	}
}

func (a *app) loadTaskBoard(ctx context.Context) (*workflow.Board[string, model.Ticket], error) {
	cols, err := a.api.ListColumns(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := a.api.ListTickets(ctx, nil)
	if err != nil {
		return nil, err
	}
	order := make([]string, len(cols))
	for i, c := range cols {
		order[i] = c.ID.String()
	}
	board := workflow.NewBoard[string, model.Ticket](order, func(t model.Ticket) string { return t.ID.String() })
	if err := board.Place(tickets, func(t model.Ticket) string { return t.ColumnID.String() }); err != nil {
		return nil, err
	}
	return board, nil
}

func newTicketDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "ticket")
			if err != nil {
				return err
			}
			if err := a.api.DeleteTicket(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted ticket %s\n", id)
			return err
		},
	}
}

func newTimerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Track time on a ticket",
	}
	for _, action := range []string{"start", "stop"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action + " ID",
			Short: action + " the ticket timer",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "ticket")
				if err != nil {
					return err
				}
				var t *model.Ticket
				if action == "start" {
					t, err = a.api.StartTimer(cmd.Context(), id)
				} else {
					t, err = a.api.StopTimer(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), t, func(w io.Writer) error {
					return writeTickets(w, []model.Ticket{*t})
				})
			},
		})
	}
	return cmd
}
