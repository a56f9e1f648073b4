package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goalrunner/internal/agent"
	"goalrunner/internal/config"
	"goalrunner/internal/credentials"
	"goalrunner/internal/journal"
	"goalrunner/internal/logging"
	"goalrunner/internal/tooling"
)

// Version is set via -ldflags during build
var Version = "dev"

var errGoalNotAchieved = errors.New("goal not achieved")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errGoalNotAchieved) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configPath string

	root := &cobra.Command{
		Use:           "goalrunner [goal]",
		Short:         "Plan and execute a natural-language goal with capability calls",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoal(cmd.Context(), v, configPath, strings.Join(args, " "))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.goalrunner/config.yaml)")
	flags.String("workspace", "", "directory file operations are confined to")
	flags.String("provider", "", "collaborator provider: openrouter, openai, zai, gemini or mock")
	flags.String("model", "", "model name for the provider")
	flags.String("approval", "", "approval mode: interactive, auto or deny")
	flags.Int("max-iterations", 0, "stop after this many plan iterations (0 = unbounded)")
	for key, flag := range map[string]string{
		"workspace_root": "workspace",
		"provider":       "provider",
		"model":          "model",
		"approval_mode":  "approval",
		"max_iterations": "max-iterations",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newSetupCmd(),
		newRunsCmd(v, &configPath),
		newCapabilitiesCmd(v, &configPath),
		newVersionCmd(),
	)
	return root
}

// app is everything a goal run needs, built from config.
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	cleanup []func() error
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		_ = a.cleanup[i]()
	}
}

func loadApp(v *viper.Viper, configPath string) (*app, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.Setup(logging.Options{
		Path:       cfg.LogPath,
		Level:      cfg.LogLevel,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Console:    cfg.LogConsole,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, cleanup: []func() error{closer.Close}}, nil
}

func (a *app) registry() *tooling.Registry {
	return tooling.NewRegistry(tooling.DefaultCapabilities(tooling.Options{
		WorkspaceRoot: a.cfg.WorkspaceRoot,
		HTTPTimeout:   a.cfg.HTTPTimeout(),
		SearchBaseURL: a.cfg.SearchBaseURL,
		SearchResults: a.cfg.SearchResults,
		Logger:        a.logger,
	})...)
}

func runGoal(ctx context.Context, v *viper.Viper, configPath, goal string) error {
	a, err := loadApp(v, configPath)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	creds, err := credentials.NewManager(config.GetConfigDir()).Load()
	if err != nil {
		return err
	}
	client, err := buildClient(ctx, cfg, creds, a.logger)
	if err != nil {
		return err
	}
	approver, err := agent.ApproverFor(cfg.ApprovalMode)
	if err != nil {
		return err
	}

	var recorder agent.Recorder
	if j, err := journal.Open(ctx, cfg.JournalPath); err != nil {
		a.logger.Warn().Err(err).Str("path", cfg.JournalPath).Msg("journal unavailable; continuing without it")
	} else {
		a.cleanup = append(a.cleanup, j.Close)
		recorder = j
	}

	registry := a.registry()
	console := agent.NewTerminalConsole()
	advisor := agent.NewAdvisor(client, agent.AdvisorOptions{
		Model:         cfg.ModelFor(cfg.Provider),
		Temperature:   cfg.Temperature,
		Workspace:     cfg.WorkspaceRoot,
		HistoryWindow: cfg.HistoryWindow,
		Logger:        a.logger,
	})
	executor := agent.NewExecutor(agent.ExecutorOptions{
		Registry:  registry,
		Advisor:   advisor,
		Approver:  approver,
		Recorder:  recorder,
		Console:   console,
		Normalize: cfg.NormalizeResults,
		Logger:    &a.logger,
	})
	commander := agent.NewCommander(agent.CommanderOptions{
		Registry:      registry,
		Advisor:       advisor,
		Executor:      executor,
		Approver:      approver,
		Recorder:      recorder,
		Console:       console,
		MaxIterations: cfg.MaxIterations,
		Logger:        &a.logger,
	})

	if strings.TrimSpace(goal) == "" {
		goal = cfg.Goal
	}
	outcome := commander.ProcessGoal(ctx, goal)
	console.Section("Final Result", outcome.Message)
	if !outcome.Achieved {
		return errGoalNotAchieved
	}
	return nil
}
