package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/brainstorm-platform/idea-engine/config"
	"github.com/brainstorm-platform/idea-engine/internal/collect"
	"github.com/brainstorm-platform/idea-engine/internal/models"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run a single ideation session interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		// Console sessions are throwaway; never touch a shared database.
		cfg.DatabaseURL = ""

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, cleanup, err := buildEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		return runConsoleSession(ctx, cfg, eng, os.Stdin, os.Stdout)
	},
}

type engineAPI interface {
	Create(ctx context.Context) (*models.Session, error)
	SetPurpose(ctx context.Context, id, purpose string) (*models.Session, error)
	GenerateWarmup(ctx context.Context, id string) ([]string, error)
	ConfirmWarmup(ctx context.Context, id string) error
	SetAssociations(ctx context.Context, id string, items []string) (*models.Session, error)
	GenerateIdeas(ctx context.Context, id string) ([]models.Idea, error)
	Delete(ctx context.Context, id string) error
}

func runConsoleSession(ctx context.Context, cfg *config.Config, eng engineAPI, in *os.File, out *os.File) error {
	lines := readLines(in)

	session, err := eng.Create(ctx)
	if err != nil {
		return err
	}
	// Best effort: the expiry sweep reclaims anything a crashed run leaves.
	defer eng.Delete(context.Background(), session.ID)

	fmt.Fprintln(out, "Session started.")
	fmt.Fprint(out, "\nWhat do you want ideas for?\n> ")
	purpose, err := nextLine(ctx, lines)
	if err != nil {
		return err
	}
	if _, err := eng.SetPurpose(ctx, session.ID, purpose); err != nil {
		return err
	}

	questions, err := eng.GenerateWarmup(ctx, session.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nWarmup questions to loosen up (no need to answer here):")
	for i, q := range questions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, q)
	}
	fmt.Fprint(out, "\nPress Enter when you're ready to continue.")
	if _, err := nextLine(ctx, lines); err != nil {
		return err
	}
	if err := eng.ConfirmWarmup(ctx, session.ID); err != nil {
		return err
	}

	collector := collect.NewCollector(cfg.CollectorBudget, cfg.CollectorMinItems, cfg.CollectorMaxItems)
	fmt.Fprintf(out, "\nType free associations, one per line. You have %s, aim for at least %d.\n",
		cfg.CollectorBudget, cfg.CollectorMinItems)
	items := collector.Collect(ctx, collect.ProducerFunc(func(ctx context.Context) (string, error) {
		return nextLine(ctx, lines)
	}))

	if _, err := eng.SetAssociations(ctx, session.ID, items); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nGenerating ideas, this can take a moment...")
	ideas, err := eng.GenerateIdeas(ctx, session.ID)
	if err != nil {
		return err
	}

	for i, idea := range ideas {
		fmt.Fprintf(out, "\n=== Idea %d: %s ===\n%s\n", i+1, idea.Title, idea.Description)
		if idea.Swot != nil {
			fmt.Fprintf(out, "Strengths:     %s\n", idea.Swot.Strengths)
			fmt.Fprintf(out, "Weaknesses:    %s\n", idea.Swot.Weaknesses)
			fmt.Fprintf(out, "Opportunities: %s\n", idea.Swot.Opportunities)
			fmt.Fprintf(out, "Threats:       %s\n", idea.Swot.Threats)
		}
	}

	fmt.Fprintln(out, "\nDone. Session cleaned up.")
	return nil
}

// readLines pumps stdin lines into a channel so reads can race a deadline.
// The goroutine leaks for the remainder of the process if the caller stops
// reading, which is acceptable for a one-shot console run.
func readLines(in *os.File) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			ch <- strings.TrimRight(scanner.Text(), "\r\n")
		}
	}()
	return ch
}

func nextLine(ctx context.Context, lines <-chan string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lines:
		if !ok {
			return "", fmt.Errorf("input closed")
		}
		return line, nil
	}
}
