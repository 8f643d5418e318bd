package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/cache"
	"github.com/SAP-F-2025/lesson-service/internal/config"
	"github.com/SAP-F-2025/lesson-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lesson-service/internal/services"
	"github.com/SAP-F-2025/lesson-service/internal/utils"
	"github.com/SAP-F-2025/lesson-service/internal/validator"
	"github.com/SAP-F-2025/lesson-service/pkg"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type importOptions struct {
	SkipCache bool
	Timeout   time.Duration
}

func main() {
	root := &cobra.Command{
		Use:           "lessonctl",
		Short:         "Maintain the lesson challenge catalogue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCommand(), newImportCommand())

	if err := root.Execute(); err != nil {
		color.New(color.FgHiRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalogue tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := pkg.InitDatabase(cfg)
			if err != nil {
				return err
			}
			if err := pkg.MigrateDatabase(db); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "catalogue schema is up to date")
			return nil
		},
	}
}

func newImportCommand() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Upsert challenges from an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			result, err := runImport(ctx, args[0], opts)
			if err != nil {
				return err
			}
			printImportSummary(cmd.OutOrStdout(), args[0], result)
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d row(s) rejected", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.SkipCache, "skip-cache", false, "do not evict cached challenges from redis")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "abort the import after this long")
	return cmd
}

func runImport(ctx context.Context, path string, opts importOptions) (*services.ImportResult, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	cacheService := cache.NewNoopCache()
	if !opts.SkipCache {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, zap.NewNop())
	}

	logger := utils.ToSlogLogger(utils.NewLogger(cfg.IsProduction()))
	challenges := services.NewChallengeService(
		postgres.NewChallengePostgreSQL(db),
		cacheService,
		cfg.CacheTTL,
		logger,
		validator.New(),
	)

	return challenges.ImportFromExcel(ctx, file)
}

func printImportSummary(w io.Writer, path string, result *services.ImportResult) {
	color.New(color.FgHiCyan).Fprintf(w, "%s: %d row(s), %d processed in %s\n",
		path, result.TotalRows, result.ProcessedRows, result.ProcessingTime.Round(time.Millisecond))

	if len(result.ChallengeIDs) > 0 {
		color.New(color.FgGreen).Fprintf(w, "imported %d challenge(s)\n", len(result.ChallengeIDs))
		for _, id := range result.ChallengeIDs {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}

	for _, rowErr := range result.Errors {
		color.New(color.FgYellow).Fprintf(w, "row %d, %s: %s\n", rowErr.Row, rowErr.Column, rowErr.Message)
	}
}
