package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"todo-board/internal/board"
	"todo-board/internal/bot"
	"todo-board/internal/config"
	"todo-board/internal/logging"
	"todo-board/internal/repository"
	"todo-board/internal/service"
	"todo-board/internal/ui"
)

const (
	defaultTUILogFile = "todoboard.log"
	shutdownTimeout   = 5 * time.Second
	digestJobTimeout  = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "todoboard:", err)
		return 1
	}
	return 0
}

// app carries what every command sets up before it runs.
type app struct {
	flags   *config.Flags
	cfg     *config.Config
	log     *logrus.Logger
	cleanup []func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "todoboard",
		Short: "A to-do board backed by a remote store",
		Long: `todoboard keeps a list of tasks with a title, description and deadline in
a remote store. It runs as a terminal board (default), as a Telegram bot with
one board per chat, or prints a deadline digest.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}
	a.flags = config.BindFlags(root)

	root.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Open the terminal board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "bot",
		Short: "Serve the board over Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBot(cmd)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "digest",
		Short: "Print overdue and upcoming deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDigest(cmd)
		},
	})
	return root
}

// setup loads the configuration, builds the logger and installs tracing.
// The terminal board logs to a file since it owns the screen.
func (a *app) setup(cmd *cobra.Command, logToFile bool) error {
	cfg, err := config.Load(a.flags, cmd.Flags().Changed)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if logToFile && cfg.Log.File == "" {
		cfg.Log.File = defaultTUILogFile
	}

	log, closeLog, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	a.cfg = cfg
	a.log = log
	a.cleanup = append(a.cleanup, func(context.Context) error { return closeLog() })

	if cfg.Tracing.Enabled {
		a.cleanup = append(a.cleanup, logging.SetupTracing(log))
	}

	log.WithFields(cfg.Fields()).WithField("command", cmd.Name()).Info("todoboard starting")
	return nil
}

// teardown runs cleanups in reverse order.
func (a *app) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil && a.log != nil {
			a.log.WithError(err).Warn("cleanup")
		}
	}
	a.cleanup = nil
}

func (a *app) openRepository(ctx context.Context) (*repository.TaskRepository, error) {
	backend, err := openBackend(ctx, a.cfg.Store, a.cfg.Tracing.Enabled, a.log)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	repo := repository.NewTaskRepository(backend)
	// Registered after logging and tracing so it closes first.
	a.cleanup = append(a.cleanup, repo.Close)
	return repo, nil
}

func (a *app) runTUI(cmd *cobra.Command) error {
	if err := a.setup(cmd, true); err != nil {
		return err
	}
	defer a.teardown()

	ctx := cmd.Context()
	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}

	brd := board.New(repo, board.WithLogger(a.log))
	err = ui.Run(ctx, brd)
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *app) runBot(cmd *cobra.Command) error {
	if err := a.setup(cmd, false); err != nil {
		return err
	}
	defer a.teardown()
	if err := a.cfg.ValidateBot(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := cmd.Context()
	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}

	digests := service.NewDigestService(repo)
	telegramBot, err := bot.New(a.cfg.Telegram.Token, repo, digests, a.log)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local, a.log)
	sendDigests := func() {
		jobCtx, cancel := context.WithTimeout(ctx, digestJobTimeout)
		defer cancel()
		if err := telegramBot.SendDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.WithError(err).Warn("send digests")
		}
	}
	if a.cfg.Digest.Interval > 0 {
		if _, err := scheduler.ScheduleInterval(a.cfg.Digest.Interval, sendDigests); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}
	if a.cfg.Digest.DailyAt != "" {
		if _, err := scheduler.ScheduleDaily(a.cfg.Digest.DailyAt, sendDigests); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}
	if scheduler.Entries() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	a.log.Info("todo board bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	a.log.Info("shutdown complete")
	return nil
}

func (a *app) runDigest(cmd *cobra.Command) error {
	if err := a.setup(cmd, false); err != nil {
		return err
	}
	defer a.teardown()

	ctx := cmd.Context()
	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	digest, err := service.NewDigestService(repo).Summary(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), digest.Text())
	return err
}
