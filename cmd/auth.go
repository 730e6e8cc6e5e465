package cmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newAuthCmd(a *app) *cobra.Command {
	var redirectURI string

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain an access token for a Pocket user",
		Long: `auth requests a token, prints the URL the user has to open to approve
the application, waits for Enter and exchanges the approved token for an
access token. The access token is printed, not stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if redirectURI == "" {
				redirectURI = a.cfg.Pocket.RedirectURI
			}
			return a.runAuth(cmd, redirectURI)
		},
	}

	authCmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "where Pocket sends the user after approval (default from config)")

	return authCmd
}

func (a *app) runAuth(cmd *cobra.Command, redirectURI string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	requestToken, err := a.client.GetRequestToken(ctx, redirectURI)
	if err != nil {
		return errors.WithMessage(err, "failed to get request token")
	}
	a.logger.Debug().Str("code", requestToken.Code).Msg("Got request token")

	fmt.Fprintln(out, "Open the URL and confirm the authorization:")
	fmt.Fprintln(out, a.client.GetAuthorizationURL(requestToken.Code, redirectURI))
	fmt.Fprintln(out, "Press Enter to continue...")

	if _, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "failed to read confirmation")
	}

	access, err := a.client.Authorize(ctx, requestToken.Code)
	if err != nil {
		return errors.WithMessage(err, "failed to authorize")
	}

	a.logger.Info().Str("username", access.Username).Msg("Authorized")
	fmt.Fprintf(out, "Access token: %s\nUsername: %s\n", access.AccessToken, access.Username)

	return nil
}
