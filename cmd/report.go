package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"hr-interview-bot/internal/admin"
	"hr-interview-bot/internal/interview"
	botlog "hr-interview-bot/internal/logger"
	"hr-interview-bot/internal/questions"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print interview reports from the database",
}

var reportStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregated interview statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withReports(cmd, func(ctx context.Context, r *admin.Reports, catalog *questions.Catalog) error {
			stats, err := r.Stats(ctx)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(stats)
			}
			fmt.Println(admin.FormatStatistics(stats, catalog))
			return nil
		})
	},
}

var reportRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print the latest interview results",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		track, _ := cmd.Flags().GetString("track")

		withReports(cmd, func(ctx context.Context, r *admin.Reports, _ *questions.Catalog) error {
			var (
				rows []admin.ResultRow
				err  error
			)
			if track != "" {
				rows, err = r.ByTrack(ctx, questions.Track(track), limit)
			} else {
				rows, err = r.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(rows)
			}
			return printRows(rows)
		})
	},
}

var reportCandidateCmd = &cobra.Command{
	Use:   "candidate <id>",
	Short: "Print the full result of a candidate",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			log.Fatalf("invalid candidate id %q", args[0])
		}

		withReports(cmd, func(ctx context.Context, r *admin.Reports, _ *questions.Catalog) error {
			detail, err := r.Detail(ctx, id)
			if errors.Is(err, interview.ErrNotFound) {
				return fmt.Errorf("candidate %d has no results", id)
			}
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(detail)
			}
			fmt.Println(admin.FormatDetail(detail))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportStatsCmd, reportRecentCmd, reportCandidateCmd)

	reportRecentCmd.Flags().IntP("limit", "n", admin.DefaultLimit, "number of results")
	reportRecentCmd.Flags().StringP("track", "t", "", "filter by position (sales, qa)")
}

// withReports открывает хранилище только на время команды
func withReports(cmd *cobra.Command, fn func(ctx context.Context, r *admin.Reports, catalog *questions.Catalog) error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := botlog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}
	if cfg.Storage.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required for reports")
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatal("loading questions", zap.Error(err))
	}

	repo, closeRepo, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer closeRepo()

	// в консоли доступ ограничен доступом к базе
	reports := admin.NewReports(repo, catalog, nil, logger)
	if err := fn(ctx, reports, catalog); err != nil {
		logger.Error("report failed", zap.Error(err))
		os.Exit(1)
	}
}

func printRows(rows []admin.ResultRow) error {
	if len(rows) == 0 {
		fmt.Println("Пока нет результатов интервью.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tКАНДИДАТ\tПОЗИЦИЯ\tОЦЕНКА\tРЕКОМЕНДАЦИЯ\tДАТА")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s %s\t%s\n",
			row.CandidateID,
			row.Name,
			row.Track.Code(),
			row.OverallScore,
			admin.StatusEmoji(row.Recommendation),
			row.Recommendation,
			row.CreatedAt.Format("02.01.2006 15:04"),
		)
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
