package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"buildbid/internal/collection"
	"buildbid/internal/job"
	"buildbid/internal/model"
)

func newCommentCommand(a *app) *cobra.Command {
	var ticket, project string
	cmd := &cobra.Command{
		Use:               "comments",
		Aliases:           []string{"comment"},
		Short:             "Discussion on a ticket or project",
		PersistentPreRunE: a.loggedIn,
	}
	cmd.PersistentFlags().StringVar(&ticket, "ticket", "", "ticket id")
	cmd.PersistentFlags().StringVar(&project, "project", "", "project id")

	thread := func() (*collection.Collection[model.Comment], func(ctx context.Context, content string) (*model.Comment, error), error) {
		if (ticket == "") == (project == "") {
			return nil, nil, errors.New("exactly one of --ticket or --project is required")
		}
		var (
			list func(ctx context.Context, id uuid.UUID) ([]model.Comment, error)
			add  func(ctx context.Context, id uuid.UUID, content string) (*model.Comment, error)
			raw  = ticket
		)
		if ticket != "" {
			list, add = a.api.TicketComments, a.api.AddTicketComment
		} else {
			list, add, raw = a.api.ProjectComments, a.api.AddProjectComment, project
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid id %q", raw)
		}
		c := collection.New(func(ctx context.Context) ([]model.Comment, error) {
			return list(ctx, id)
		}, func(cm model.Comment) string { return cm.ID.String() }, func(cm model.Comment) []string {
			return []string{cm.AuthorName, cm.Content}
		})
		return c, func(ctx context.Context, content string) (*model.Comment, error) {
			return add(ctx, id, content)
		}, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the thread, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				comments, _, err := thread()
				if err != nil {
					return err
				}
				if err := comments.Load(cmd.Context()); err != nil {
					return err
				}
				items := comments.Items()
				return a.emit(cmd.OutOrStdout(), items, func(w io.Writer) error {
					return writeComments(w, items)
				})
			},
		},
		&cobra.Command{
			Use:   "add TEXT",
			Short: "Post a comment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				comments, add, err := thread()
				if err != nil {
					return err
				}
				if err := comments.Load(cmd.Context()); err != nil {
					return err
				}
				if _, err := comments.Create(cmd.Context(), func(ctx context.Context) (model.Comment, error) {
					c, err := add(ctx, args[0])
					if err != nil {
						return model.Comment{}, err
					}
					return *c, nil
				}); err != nil {
					return err
				}
				items := comments.Items()
				return a.emit(cmd.OutOrStdout(), items, func(w io.Writer) error {
					return writeComments(w, items)
				})
			},
		},
	)
	return cmd
}

func writeComments(w io.Writer, comments []model.Comment) error {
	for _, c := range comments {
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", c.CreatedAt.Format(time.RFC3339), c.AuthorName, c.Content); err != nil {
			return err
		}
	}
	return nil
}

func newNotificationsCommand(a *app) *cobra.Command {
	var unread bool
	var limit int
	cmd := &cobra.Command{
		Use:               "notifications",
		Short:             "Your notification feed",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.loggedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.api.Notifications(cmd.Context(), unread, limit)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), items, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tWHEN\tREAD\tTITLE")
				for _, n := range items {
					read := " "
					if n.IsRead {
						read = "x"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.CreatedAt.Format(time.RFC3339), read, n.Title)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number to show")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "read ID",
			Short: "Mark one notification read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "notification")
				if err != nil {
					return err
				}
				return a.api.MarkNotificationRead(cmd.Context(), id)
			},
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification read",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := a.api.MarkAllNotificationsRead(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Marked %d read\n", n)
				return err
			},
		},
	)
	return cmd
}

// pushRefresh re-registers a device token so the server keeps it out of stale-token cleanup.
type pushRefresh struct {
	ctx      context.Context
	a        *app
	token    string
	platform string
}

func (p *pushRefresh) Name() string { return "push_token_refresh" }

func (p *pushRefresh) Run() {
	if err := p.a.api.RegisterPushToken(p.ctx, p.token, p.platform); err != nil {
		p.a.logger.Warn("Push token refresh failed", zap.Error(err))
		return
	}
	p.a.logger.Debug("Push token refreshed")
}

func newPushCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "push",
		Short:             "Device push notification tokens",
		PersistentPreRunE: a.loggedIn,
	}

	var token, platform string
	var keepAlive bool
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a cloud messaging token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.RegisterPushToken(cmd.Context(), token, platform); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Push token registered")
			if !keepAlive {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.keepAlive(ctx, &pushRefresh{ctx: ctx, a: a, token: token, platform: platform})
		},
	}
	register.Flags().StringVar(&token, "token", "", "device token")
	register.Flags().StringVar(&platform, "platform", "cli", "device platform")
	register.Flags().BoolVar(&keepAlive, "keep-alive", false, "stay running and re-register on a schedule")
	_ = register.MarkFlagRequired("token")

	unregister := &cobra.Command{
		Use:   "unregister TOKEN",
		Short: "Remove a device token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.api.UnregisterPushToken(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(register, unregister)
	return cmd
}

// keepAlive runs j on the keep-alive schedule until ctx is done.
func (a *app) keepAlive(ctx context.Context, j job.Job) error {
	s := job.NewScheduler(a.logger)
	if err := s.Add(a.opts.KeepAliveSchedule, j); err != nil {
		return err
	}
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}
