// Package main provides the mealwise CLI: the HTTP server plus one-shot chat
// and tool commands against the same configuration.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mealwise/mealwise/internal/config"
	"github.com/mealwise/mealwise/internal/handler"
	"github.com/mealwise/mealwise/internal/models"
	"github.com/mealwise/mealwise/internal/server"
)

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "mealwise",
		Short: "Healthy meal recommendations over a recipe corpus",
		Long: `mealwise answers natural-language questions about meals and their
health scores by letting a language model call recipe tools.

Configuration comes from MEALWISE_* environment variables and an optional
config file named by MEALWISE_CONFIG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg)
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		chatCmd(),
		toolsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			svc, err := server.NewServices(ctx, cfg, nil)
			if err != nil {
				return err
			}
			log.Info().Str("version", handler.Version).Str("environment", cfg.Environment).Msg("starting mealwise")
			return server.New(cfg, svc).Run(ctx)
		},
	}
}

func chatCmd() *cobra.Command {
	var (
		source  string
		timeout int
		trace   bool
	)
	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Ask one question and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			svc, err := server.NewServices(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := svc.RequireChat(); err != nil {
				return err
			}

			req := &models.ChatRequest{Prompt: args[0], Timeout: timeout, IncludeTrace: trace}
			if source != "" {
				req.Source = &source
			}
			resp, err := svc.Meals.Handle(ctx, req, "")
			if resp != nil && (trace || err != nil) {
				if encErr := printJSON(cmd, resp); encErr != nil {
					return encErr
				}
			}
			if err != nil {
				return err
			}
			if !trace {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Corpus source (default: configured corpus)")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Timeout in seconds (default and maximum: agent_timeout)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print the full response with the tool trace as JSON")
	return cmd
}

func toolsCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			svc, err := server.NewServices(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			var src *string
			if source != "" {
				src = &source
			}
			schemas, err := svc.Meals.Tools(ctx, src)
			if err != nil {
				return err
			}
			for _, s := range schemas {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", s.Name, s.Description)
			}
			return nil
		},
	}
	cmd.AddCommand(toolCallCmd(&source))
	cmd.PersistentFlags().StringVar(&source, "source", "", "Corpus source (default: configured corpus)")
	return cmd
}

func toolCallCmd(source *string) *cobra.Command {
	return &cobra.Command{
		Use:   "call <name> [json-arguments]",
		Short: "Run one tool directly and print its result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			req := &models.ToolCallRequest{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &req.Arguments); err != nil {
					return fmt.Errorf("parse arguments: %w", err)
				}
			}
			req.SetDefaults()
			if *source != "" {
				req.Source = source
			}

			svc, err := server.NewServices(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Meals.CallTool(ctx, req, args[0], "")
			if err != nil {
				return err
			}
			status := "success"
			if res.IsError {
				status = "error"
			}
			if encErr := printJSON(cmd, models.ToolCallResponse{
				Status:    status,
				Tool:      args[0],
				Result:    res.Data,
				Rationale: res.Rationale,
				IsError:   res.IsError,
			}); encErr != nil {
				return encErr
			}
			if res.IsError {
				return fmt.Errorf("tool %s failed: %s", args[0], res.Rationale)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// The version needs no config.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mealwise", handler.Version)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
