package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	var pageContext string
	var newSession bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the knowledge base within the active conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, store, err := opts.app.Chat(cmd.Context())
			if err != nil {
				return err
			}
			if newSession {
				if _, err := store.Create(cmd.Context()); err != nil {
					return err
				}
			}

			sess, err := controller.Send(cmd.Context(), strings.Join(args, " "), pageContext)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), sess.Messages[len(sess.Messages)-1])
			return nil
		},
	}
	cmd.Flags().StringVar(&pageContext, "context", "", "Page or topic the question relates to")
	cmd.Flags().BoolVar(&newSession, "new", false, "Start a new conversation first")
	return cmd
}
