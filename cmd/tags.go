package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/x0000ff/pocket-tags/pocket"
)

func newTagsCmd(a *app) *cobra.Command {
	var (
		accessToken string
		asJSON      bool
	)

	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Print how many saved items carry each tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" {
				accessToken = a.cfg.Pocket.AccessToken
			}
			if accessToken == "" {
				return errors.New("access token is required: run auth first and set pocket.access_token, POCKET_ACCESS_TOKEN or --access-token")
			}
			return a.runTags(cmd, accessToken, asJSON)
		},
	}

	tagsCmd.Flags().StringVar(&accessToken, "access-token", "", "access token (default from config)")
	tagsCmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return tagsCmd
}

func (a *app) runTags(cmd *cobra.Command, accessToken string, asJSON bool) error {
	summaries, err := a.client.GetTagSummary(cmd.Context(), accessToken)
	if err != nil {
		a.logger.Error().Err(err).Str("kind", pocket.Kind(err).String()).Msg("Tag summary failed")
		return errors.WithMessage(err, "failed to get tag summary")
	}

	pocket.SortTagSummaries(summaries)
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No tagged items found.")
		return nil
	}

	for _, s := range summaries {
		fmt.Fprintf(out, "%-32s %d\n", s.Tag, s.ItemCount)
	}

	return nil
}
