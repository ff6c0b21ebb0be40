package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/config"
	"github.com/TLSLime/Puppeteer/internal/dialog"
	"github.com/TLSLime/Puppeteer/internal/humanize"
	"github.com/TLSLime/Puppeteer/internal/input"
	"github.com/TLSLime/Puppeteer/internal/lifecycle"
	"github.com/TLSLime/Puppeteer/internal/model"
	"github.com/TLSLime/Puppeteer/internal/observability"
	"github.com/TLSLime/Puppeteer/internal/safety"
	"github.com/TLSLime/Puppeteer/internal/window"
)

var (
	runScript string
	runLoop   bool
	runTitle  string
	runSafety string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a recorded script against the target window.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAutomation(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runScript, "script", "s", "", "script file to play (overrides the config)")
	runCmd.Flags().BoolVar(&runLoop, "loop", false, "restart the script from the top when it ends")
	runCmd.Flags().StringVar(&runTitle, "title", "", "target window title (overrides the config)")
	runCmd.Flags().StringVar(&runSafety, "safety", "", "safety level: off, low, medium, high")
	rootCmd.AddCommand(runCmd)
}

// humanParker lets window readiness park the pointer through the humanizer.
type humanParker struct {
	human *humanize.Humanizer
}

func (p humanParker) Park(ctx context.Context, x, y int) error {
	_, err := p.human.MoveTo(ctx, x, y)
	return err
}

func runAutomation(ctx context.Context) error {
	logger := observability.GetLogger()

	if runTitle != "" {
		cfg.Lifecycle.Target = window.Descriptor{Title: runTitle}
	}
	if cfg.Lifecycle.Target.Empty() {
		return fmt.Errorf("no target window: set lifecycle.target in the config or pass --title")
	}
	if runSafety != "" {
		cfg.Safety.Level = runSafety
	}
	monCfg, err := cfg.Safety.Monitor()
	if err != nil {
		return err
	}

	scriptPath := cfg.Script
	if runScript != "" {
		scriptPath = runScript
	}
	if scriptPath == "" {
		return fmt.Errorf("no script: set script in the config or pass --script")
	}
	script, err := config.LoadScript(scriptPath)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	logger.Info("script loaded",
		zap.String("path", scriptPath),
		zap.String("name", script.Name),
		zap.Int("actions", len(script.Actions)))

	ledger := &model.ActivityLedger{}
	chain := input.NewChain(logger,
		input.NewNativeBackend(),
		input.NewRobotgoBackend(),
		input.NewCommandBackend(),
	)

	opts := make([]humanize.Option, 0, len(cfg.Humanize.Profiles))
	for name, p := range cfg.Humanize.Profiles {
		opts = append(opts, humanize.WithProfile(name, p))
	}
	human := humanize.New(logger, chain, ledger, cfg.Humanize.Default, opts...)

	monitor := safety.NewMonitor(logger, safety.NewHookProbe(chain), ledger, monCfg)

	collab := window.NewOSCollaborator(logger)
	ready := window.NewReadiness(logger, collab, cfg.Window, humanParker{human})
	targeter := dialog.NewTargeter(logger, collab, human, cfg.Dialog)
	resolver := dialog.NewResolver(logger, ready, collab, targeter,
		dialog.Policy{Expected: cfg.Expected})

	ctrl := lifecycle.New(logger, cfg.Lifecycle, human, monitor, resolver,
		lifecycle.NopObserver{}, lifecycle.NewScriptDecider(script, runLoop),
		lifecycle.ZapRecorder{Logger: logger.Named("record")})

	if err := ctrl.Start(); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctrl.Done():
	case <-sigCtx.Done():
		logger.Info("interrupt received, stopping")
		ctrl.Stop("operator interrupt")
	}

	status := ctrl.Status()
	logger.Info("automation finished",
		zap.String("state", status.State.String()),
		zap.String("reason", status.StopReason),
		zap.Uint64("cycles", status.Cycle.Cycles),
		zap.Uint64("actions", status.Cycle.Actions),
		zap.Uint64("failures", status.Cycle.Failures))
	fmt.Fprintf(os.Stdout, "%s: %s (%d actions, %d failures)\n",
		status.State, status.StopReason, status.Cycle.Actions, status.Cycle.Failures)
	return nil
}
