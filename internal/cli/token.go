package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-kb-chat/internal/utils"
	"github.com/jrsteele09/go-kb-chat/token"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and manage the knowledge-base credential",
	}
	cmd.AddCommand(
		newTokenStatusCommand(opts),
		newTokenRefreshCommand(opts),
		newTokenClearCommand(opts),
		newTokenConfigureCommand(opts),
		newTokenDiscoverCommand(opts),
	)
	return cmd
}

func newTokenStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the cached token state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := opts.app.Tokens.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading token status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newTokenRefreshCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Request a new token from the issuer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.app.Tokens.Refresh(cmd.Context()); err != nil {
				return err
			}
			status, err := opts.app.Tokens.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading token status: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Token refreshed"))
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newTokenClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the cached token so the next request refreshes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.Tokens.ClearCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Token cache cleared"))
			return nil
		},
	}
}

func newTokenConfigureCommand(opts *rootOptions) *cobra.Command {
	var s token.OAuthSettings

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store OAuth2 client credentials or a manual token",
		Long: `Store OAuth2 client credentials or a manual token.

Only the flags given are changed; everything else keeps its stored value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := opts.app.Tokens.Repo()
			current, err := repo.LoadSettings(cmd.Context())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("use-oauth") {
				current.UseOAuth = s.UseOAuth
			}
			if flags.Changed("client-id") {
				current.ClientID = s.ClientID
			}
			if flags.Changed("client-secret") {
				current.ClientSecret = s.ClientSecret
			}
			if flags.Changed("tenant-id") {
				current.TenantID = s.TenantID
			}
			if flags.Changed("scope") {
				current.Scope = s.Scope
			}
			if flags.Changed("endpoint") {
				current.Endpoint = s.Endpoint
			}
			if flags.Changed("manual-token") {
				current.ManualToken = s.ManualToken
			}

			if err := repo.SaveSettings(cmd.Context(), current); err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), current)
			return nil
		},
	}

	cmd.Flags().BoolVar(&s.UseOAuth, "use-oauth", false, "Use the client-credentials grant")
	cmd.Flags().StringVar(&s.ClientID, "client-id", "", "OAuth2 client id")
	cmd.Flags().StringVar(&s.ClientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringVar(&s.TenantID, "tenant-id", "", "Microsoft Entra tenant id")
	cmd.Flags().StringVar(&s.Scope, "scope", "", "Requested scope")
	cmd.Flags().StringVar(&s.Endpoint, "endpoint", "", "Token endpoint, overrides the tenant endpoint")
	cmd.Flags().StringVar(&s.ManualToken, "manual-token", "", "Static bearer token used when OAuth is off or failing")
	return cmd
}

func newTokenDiscoverCommand(opts *rootOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "discover <issuer>",
		Short: "Resolve the token endpoint from an OpenID Connect issuer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: opts.cfg.GetRequestTimeout()}
			endpoint, err := token.DiscoverEndpoint(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), endpoint)

			if !save {
				return nil
			}
			repo := opts.app.Tokens.Repo()
			current, err := repo.LoadSettings(cmd.Context())
			if err != nil {
				return err
			}
			current.Endpoint = endpoint
			return repo.SaveSettings(cmd.Context(), current)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Store the discovered endpoint")
	return cmd
}

func printStatus(w io.Writer, s token.Status) {
	var style = errorStyle
	switch s.Status {
	case token.StatusValid:
		style = successStyle
	case token.StatusExpiringSoon:
		style = warningStyle
	case token.StatusNone:
		style = dateStyle
	}
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Status:"), style.Render(string(s.Status)))
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Message:"), s.Message)
	if s.ExpiresAt != nil {
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Expires:"), dateStyle.Render(time.Unix(*s.ExpiresAt, 0).Format(time.RFC3339)))
	}
	if c := s.Claims; c != nil {
		if iss := utils.Value(c.Iss); iss != "" {
			fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Issuer:"), iss)
		}
		if sub := utils.Value(c.Sub); sub != "" {
			fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Subject:"), sub)
		}
		if len(c.Aud) > 0 {
			fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Audience:"), strings.Join(c.Aud, ", "))
		}
	}
}

func printSettings(w io.Writer, s token.OAuthSettings) {
	fmt.Fprintf(w, "%s %t\n", headerStyle.Render("Use OAuth:"), s.UseOAuth)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Client ID:"), s.ClientID)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Client secret:"), mask(s.ClientSecret))
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Tenant ID:"), s.TenantID)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Scope:"), s.Scope)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Endpoint:"), s.TokenEndpoint())
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Manual token:"), mask(s.ManualToken))
	if s.UseOAuth && !s.Complete() {
		fmt.Fprintln(w, warningStyle.Render("OAuth is on but the client id, secret or endpoint is missing"))
	}
}

// mask hides a secret, keeping only whether it is set.
func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "********"
}
