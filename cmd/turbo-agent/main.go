// Package main provides the CLI entry point for running Turbo agents.
//
// Turbo Agent is an autonomous project management assistant that manages
// projects, issues, initiatives, and decisions through the Turbo API.
//
// # Basic Usage
//
// Run a one-shot task:
//
//	turbo-agent "Triage all open issues in the project"
//
// Scope the agent to a project:
//
//	turbo-agent --project abc-123 "Generate a status report"
//
// Interactive multi-turn session:
//
//	turbo-agent --interactive
//
// Stream output with verbose tool calls:
//
//	turbo-agent --stream --verbose "Break down the auth feature into issues"
//
// Save output to a file:
//
//	turbo-agent --output report.md "Generate a status report"
//
// # Environment Variables
//
// Configuration can be provided via environment variables (a .env file in
// the working directory is loaded when present):
//
//   - ANTHROPIC_API_KEY: Anthropic API key for Claude models
//   - TURBO_API_URL: Turbo API base URL (default: http://localhost:8001/api/v1)
//   - TURBO_API_KEY: Bearer token for the Turbo API
//   - TURBO_ALLOWED_PROJECT_IDS: Comma-separated project scope allow-list
//   - TURBO_AGENT_RATE_LIMIT: Per-tool calls per minute (default: 30)
//   - TURBO_AGENT_AUDIT_LOG: Audit log path (default: ~/.turbo/agent-audit.jsonl)
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/turbohq/turbo-agent/internal/agent"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runFlags struct {
	project     string
	model       string
	maxTurns    int
	maxBudget   float64
	interactive bool
	stream      bool
	verbose     bool
	output      string
}

// buildRootCmd creates the root command. Separated from main() for testing.
func buildRootCmd() *cobra.Command {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:   "turbo-agent [prompt]",
		Short: "Turbo Agent - Autonomous project management powered by Claude",
		Long: `Turbo Agent runs autonomous project management tasks against the Turbo API.

It triages issues, plans features, generates status reports, and manages
work sessions, delegating to specialized subagents where appropriate.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := ""
			if len(args) > 0 {
				prompt = args[0]
			}
			return run(cmd.Context(), flags, prompt, cmd)
		},
	}

	rootCmd.Flags().StringVarP(&flags.project, "project", "p", "", "Scope agent to a specific project ID")
	rootCmd.Flags().StringVarP(&flags.model, "model", "m", agent.DefaultModel, "Model to use")
	rootCmd.Flags().IntVar(&flags.maxTurns, "max-turns", agent.DefaultMaxTurns, "Maximum agent turns")
	rootCmd.Flags().Float64Var(&flags.maxBudget, "max-budget", agent.DefaultMaxBudget, "Maximum budget in USD")
	rootCmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Run in interactive multi-turn mode")
	rootCmd.Flags().BoolVarP(&flags.stream, "stream", "s", false, "Stream agent output in real-time")
	rootCmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Show tool calls and debug info")
	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "", "Save agent output to a file")

	return rootCmd
}

func run(ctx context.Context, flags *runFlags, prompt string, cmd *cobra.Command) error {
	if flags.maxBudget <= 0 {
		return fmt.Errorf("--max-budget must be greater than 0")
	}
	if flags.maxTurns < 1 {
		return fmt.Errorf("--max-turns must be at least 1")
	}

	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	configureLogging(flags.verbose)

	if !flags.interactive && prompt == "" {
		return cmd.Help()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := agent.New(agent.Options{
		ProjectID:    flags.project,
		Model:        flags.model,
		MaxTurns:     flags.maxTurns,
		MaxBudgetUSD: flags.maxBudget,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if flags.interactive {
		return runInteractive(ctx, a)
	}
	return runOneshot(ctx, a, prompt, flags)
}

// configureLogging sets up structured logging on stderr. Verbose mode
// switches to human-readable text at debug level.
func configureLogging(verbose bool) {
	var handler slog.Handler
	if verbose {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	}
	slog.SetDefault(slog.New(handler))
}

// runOneshot runs a single agent task, optionally streaming events as they
// arrive and saving the final text to a file.
func runOneshot(ctx context.Context, a *agent.Agent, prompt string, flags *runFlags) error {
	resultText := ""

	if flags.stream {
		events, err := a.Stream(ctx, prompt)
		if err != nil {
			return err
		}
		done := false
		for event := range events {
			switch event.Kind {
			case agent.EventText:
				fmt.Println(event.Text)
				resultText = event.Text
			case agent.EventToolCall:
				if flags.verbose {
					fmt.Fprintf(os.Stderr, "  [tool] %s\n", event.ToolName)
				}
			case agent.EventResult:
				done = true
				fmt.Fprintf(os.Stderr, "\n--- Done (cost: $%.4f, turns: %d) ---\n",
					event.Result.CostUSD, event.Result.Turns)
			case agent.EventError:
				return event.Err
			}
		}
		if !done {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream ended without a result")
		}
	} else {
		text, err := a.Run(ctx, prompt)
		if err != nil {
			return err
		}
		resultText = text
		fmt.Println(resultText)
	}

	if flags.output != "" && resultText != "" {
		if err := os.WriteFile(flags.output, []byte(resultText), 0o644); err != nil {
			return fmt.Errorf("save output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "\nOutput saved to %s\n", flags.output)
	}
	return nil
}

// runInteractive runs a multi-turn session reading prompts from stdin.
func runInteractive(ctx context.Context, a *agent.Agent) error {
	fmt.Println("Turbo Agent (interactive mode)")
	fmt.Println("Type 'quit' or 'exit' to end the session.")
	fmt.Println()

	session := a.Session()
	defer session.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println("\nExiting.")
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			return scanner.Err()
		case "":
			continue
		}

		response, err := session.Send(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nExiting.")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("\nagent> %s\n\n", response)
	}
	return scanner.Err()
}
