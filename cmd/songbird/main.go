// Package main provides the CLI entry point for songbird, a
// terminal-first coding agent that talks to a pluggable LLM backend
// and edits the project in front of it.
//
// Basic usage:
//
//	songbird chat --provider anthropic
//	songbird chat --continue
//	songbird status
//	songbird performance --report
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Spandan7724/songbird/internal/cli"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Only SIGTERM cancels the root context directly. SIGINT is left
	// to each command's own handling: chat installs a double-tap gate
	// (§4.5) via its TerminalUIPort, and any other command simply gets
	// the Go runtime's default SIGINT disposition (immediate exit).
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	rootCmd := buildRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "songbird: interrupted")
			return 130
		}
		fmt.Fprintf(os.Stderr, "songbird: %v\n", err)
		return 1
	}
	return 0
}

func buildRootCmd() *cobra.Command {
	var opts cli.ChatOptions
	var listProviders bool

	rootCmd := &cobra.Command{
		Use:          "songbird",
		Short:        "A terminal coding agent",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive agent session in the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listProviders {
				return buildListProvidersCmd().RunE(cmd, args)
			}
			app, err := cli.NewApp()
			if err != nil {
				return err
			}
			return app.RunChat(cmd.Context(), opts)
		},
	}
	chatCmd.Flags().StringVar(&opts.Provider, "provider", "", "LLM provider (openai, anthropic, google, ollama, openrouter)")
	chatCmd.Flags().StringVar(&opts.Model, "model", "", "model name override")
	chatCmd.Flags().StringVar(&opts.ProviderURL, "provider-url", "", "override the API base URL (used by the ollama provider only)")
	chatCmd.Flags().BoolVar(&listProviders, "list-providers", false, "list configured providers and their discovered models, then exit")
	chatCmd.Flags().BoolVarP(&opts.Continue, "continue", "c", false, "resume the project's most recent session")
	chatCmd.Flags().StringVarP(&opts.ResumeID, "resume", "r", "", "resume a specific session by id")
	chatCmd.Flags().BoolVar(&opts.AutoApply, "auto-apply", false, "apply destructive tool calls without confirmation")

	rootCmd.AddCommand(
		chatCmd,
		buildVersionCmd(version, commit, date),
		buildListProvidersCmd(),
		buildStatusCmd(),
		buildPerformanceCmd(),
	)
	// chat is the default command when songbird is invoked bare.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())

	return rootCmd
}

func buildVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "songbird %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}

func buildListProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-providers",
		Short: "List configured providers and their discovered models",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp()
			if err != nil {
				return err
			}
			found, err := app.ListProviders(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for provider, models := range found {
				fmt.Fprintf(out, "%s:\n", provider)
				if len(models) == 0 {
					fmt.Fprintln(out, "  (no models discovered)")
					continue
				}
				for _, m := range models {
					fmt.Fprintf(out, "  %s\n", m.DisplayName())
				}
			}
			return nil
		},
	}
}

func buildStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active configuration and default provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "default provider: %s\n", app.Config.DefaultProvider())
			fmt.Fprintf(out, "auto-apply:       %v\n", app.Config.AutoApply())
			fmt.Fprintf(out, "fast mode:        %v\n", app.Config.FastMode())
			fmt.Fprintf(out, "available:        %v\n", app.Config.AvailableProviders())
			return nil
		},
	}
}

func buildPerformanceCmd() *cobra.Command {
	var report, clear bool
	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Inspect the in-process tool/provider metrics registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp()
			if err != nil {
				return err
			}
			if clear {
				app.Metrics.Clear()
			}
			if report || !clear {
				text, err := app.Metrics.Report()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&report, "report", false, "print the current metrics snapshot")
	cmd.Flags().BoolVar(&clear, "clear", false, "reset all counters and histograms")
	return cmd
}
