package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetches the repository stats once and outputs them as JSON",
		Long:  `Performs a single request for the repository metadata and prints the open issue and star counts in JSON format, without serving metrics.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, err := newFetcher(o, nil)
			if err != nil {
				return err
			}

			stats, err := fetcher.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch stats: %w", err)
			}

			// Marshal the results into a pretty-printed JSON string.
			jsonData, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal stats to JSON: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}
}
