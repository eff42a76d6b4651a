// Package cli implements the champions command line tool: offline
// leaderboards and trend charts over a weekly export, plus helpers to
// generate sample data, convert it to sqlite and check a running server.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/source"
	service "github.com/brianfmorissette/chatgpt-champion/internal/app"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/features"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/ingest"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
)

// Options are the flags shared by every subcommand.
type Options struct {
	File      string
	Format    string
	Table     string
	ParseMode string
	LogLevel  string
	Weights   scoring.Weights
}

// NewRootCommand builds the champions command tree. Tables and charts go to
// stdout, logs go to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &Options{Weights: scoring.DefaultWeights()}

	root := &cobra.Command{
		Use:           "champions",
		Short:         "Rank ChatGPT champions from a weekly activity export",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setupLogging(stderr, o.LogLevel)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&o.File, "file", "f", "data/weekly_export.csv", "weekly export to read")
	pf.StringVar(&o.Format, "format", source.FormatCSV, "record format: csv or sqlite")
	pf.StringVar(&o.Table, "table", source.DefaultTable, "sqlite table holding the weekly rows")
	pf.StringVar(&o.ParseMode, "parse-mode", string(features.ModeStrict), "usage map parsing: strict or repair")
	pf.StringVar(&o.LogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.Float64Var(&o.Weights.Messages, "messages", scoring.DefaultMessagesWeight, "weight of total messages")
	pf.Float64Var(&o.Weights.Models, "models", scoring.DefaultModelsWeight, "weight of model diversity")
	pf.Float64Var(&o.Weights.GPTs, "gpts", scoring.DefaultGPTsWeight, "weight of custom GPT messages")
	pf.Float64Var(&o.Weights.Projects, "projects", scoring.DefaultProjectsWeight, "weight of projects created")
	pf.Float64Var(&o.Weights.Tools, "tools", scoring.DefaultToolsWeight, "weight of tool diversity")

	root.AddCommand(
		newLeaderboardCommand(o),
		newTrendCommand(o),
		newImportCommand(o),
		newGenerateCommand(),
		newVerifyCommand(o),
	)
	return root
}

// setupLogging sends logs to w at the requested level.
func setupLogging(w io.Writer, level string) error {
	if err := logger.InitWithOptions(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.SetLevelString(level)
}

// parser builds the ingest parser for the configured usage parse mode.
func (o *Options) parser() (*ingest.Parser, error) {
	mode, ok := features.ParseMode(o.ParseMode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidParseMode, o.ParseMode)
	}
	return ingest.New(ingest.WithUsageParser(features.NewParser(features.WithMode(mode)))), nil
}

// source opens the configured record file.
func (o *Options) source() (source.Source, error) {
	p, err := o.parser()
	if err != nil {
		return nil, err
	}
	return source.New(o.Format, o.File,
		source.WithLogger(logger.Named("source")),
		source.WithParser(p),
		source.WithTable(o.Table),
	)
}

// openService loads the records and publishes a leaderboard of up to limit rows.
func (o *Options) openService(ctx context.Context, limit int) (*service.Service, error) {
	src, err := o.source()
	if err != nil {
		return nil, err
	}
	svc := service.New(
		service.WithLogger(logger.Named("service")),
		service.WithSource(src),
		service.WithWeights(o.Weights),
		service.WithLimits(limit, limit),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
