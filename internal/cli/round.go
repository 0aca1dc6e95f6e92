package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizrush/internal/app"
	"quizrush/internal/config"
	"quizrush/internal/domain"
)

// NewRoundCmd opens or closes a quiz round from the command line. Running
// servers pick the change up through the control channel.
func NewRoundCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Open or close the quiz round",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Clear previous results and open a new round",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRound(cmd, *configPath, func(ctx context.Context, rounds *app.RoundService) (domain.QuizSettings, error) {
				return rounds.StartRound(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "Close the running round",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRound(cmd, *configPath, func(ctx context.Context, rounds *app.RoundService) (domain.QuizSettings, error) {
				return rounds.CloseRound(ctx)
			})
		},
	})
	return cmd
}

func runRound(cmd *cobra.Command, configPath string, op func(context.Context, *app.RoundService) (domain.QuizSettings, error)) error {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
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
		return fmt.Errorf("round commands need postgres.url so running servers share the results store")
	}

	if warning := broadcastWarning(b); warning != "" {
		log.Warn(warning)
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
	}

	rounds := app.NewRoundService(b.settings, b.results, b.control, b.sessions, nil, log)
	settings, err := op(ctx, rounds)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "round %d active=%t\n", settings.Round, settings.IsActive)
	return nil
}

// broadcastWarning explains why running servers will not see a round change.
func broadcastWarning(b *backend) string {
	if b.broadcast {
		return ""
	}
	return "redis.addr not configured: the change is stored but connected participants only see it when they rejoin"
}
