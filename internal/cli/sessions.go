package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-kb-chat/sessions"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

func newSessionsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Manage the local conversation history",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List conversations, most recently updated first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.app.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				activeID, _ := store.ActiveID()
				printSessionList(cmd.OutOrStdout(), store.All(), activeID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "new",
			Short: "Start a new conversation and make it active",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.app.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				sess, err := store.Create(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "use <session-id>",
			Short: "Make a conversation active",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.app.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				sess, err := store.SetActive(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active: %s\n", titleStyle.Render(sess.Title))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <session-id> <title>",
			Short: "Rename a conversation",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.app.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				sess, err := store.Rename(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", idStyle.Render(sess.ID), titleStyle.Render(sess.Title))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <session-id>",
			Short: "Delete a conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.app.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				deleted, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("no session %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", idStyle.Render(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [session-id]",
			Short: "Print a conversation, the active one by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.app.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				var sess *sessions.Session
				if len(args) == 1 {
					sess, err = store.Get(args[0])
				} else {
					sess, err = store.GetOrCreateActive(cmd.Context())
				}
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), sess)
				return nil
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Remove conversations not updated for the maximum age",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.app.LoadSessions(cmd.Context())
				if err != nil {
					return err
				}
				removed, err := store.CleanupOld(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s expired sessions, %s remaining\n",
					countStyle.Render(fmt.Sprint(removed)), countStyle.Render(fmt.Sprint(store.Len())))
				return nil
			},
		},
	)
	return cmd
}

func printSessionList(w io.Writer, all []*sessions.Session, activeID string) {
	fmt.Fprintf(w, "%s %s\n\n", headerStyle.Render("Sessions"), countStyle.Render(fmt.Sprintf("(%d)", len(all))))
	for _, s := range all {
		marker := " "
		if s.ID == activeID {
			marker = activeStyle.Render("*")
		}
		fmt.Fprintf(w, "%s %s %s\n", marker, titleStyle.Render(s.Title), idStyle.Render(s.ID))
		fmt.Fprintf(w, "    %s  %s\n",
			countStyle.Render(fmt.Sprintf("%d messages", len(s.Messages))),
			dateStyle.Render("updated "+s.Updated.Local().Format(timeLayout)))
	}
}

func printSession(w io.Writer, s *sessions.Session) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(s.Title), idStyle.Render(s.ID))
	fmt.Fprintf(w, "%s\n\n", dateStyle.Render("created "+s.Created.Local().Format(timeLayout)))
	for _, m := range s.Messages {
		printMessage(w, m)
	}
}

func printMessage(w io.Writer, m sessions.Message) {
	label := userStyle.Render("You")
	if m.Role == sessions.RoleAssistant {
		label = assistantStyle.Render("KB")
	}
	fmt.Fprintf(w, "%s %s\n%s\n", label, dateStyle.Render(m.Timestamp.Local().Format(timeLayout)), m.Content)
	for _, ref := range m.References {
		fmt.Fprintf(w, "  - %s %s\n", ref.Title, linkStyle.Render(ref.URL))
	}
	fmt.Fprintln(w)
}
