package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quizrush/internal/app"
	"quizrush/internal/config"
	"quizrush/internal/domain"
)

// NewLeaderboardCmd prints the ranked results of the current round.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		top   int
		query string
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the ranked results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			b, err := openBackend(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()
			if !b.shared {
				return fmt.Errorf("leaderboard needs postgres.url to read stored results")
			}

			board, err := app.NewLeaderboardService(b.results, b.settings, b.control, nil, log).Refresh(ctx)
			if err != nil {
				return err
			}
			entries := board.Search(query)
			if top > 0 && top < len(entries) {
				entries = entries[:top]
			}
			return printLeaderboard(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "only show the first N entries")
	cmd.Flags().StringVar(&query, "query", "", "filter by name or email")
	return cmd
}

func printLeaderboard(out io.Writer, entries []domain.LeaderboardEntry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tEMAIL\tSCORE\tTIME")
	for _, entry := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.2fs\n",
			entry.Rank,
			entry.Result.Name,
			entry.Result.Email,
			entry.Result.Score,
			float64(entry.Result.TotalTimeMs)/1000,
		)
	}
	return w.Flush()
}
