package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/config"
	"github.com/TLSLime/Puppeteer/internal/model"
	"github.com/TLSLime/Puppeteer/internal/observability"
	"github.com/TLSLime/Puppeteer/pkg/utils"
)

var (
	recordOutput string
	recordName   string
	recordCount  int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Capture mouse clicks into a script file.",
	Long: `Listens for mouse clicks and writes them as a playable script.
Recording stops after --count clicks or on Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return recordScript()
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "script file to write (default scripts dir)")
	recordCmd.Flags().StringVar(&recordName, "name", "recorded", "script name")
	recordCmd.Flags().IntVar(&recordCount, "count", 0, "stop after this many clicks (0 records until Ctrl+C)")
	rootCmd.AddCommand(recordCmd)
}

func buttonName(b uint16) string {
	switch b {
	case 2:
		return "right"
	case 3:
		return "center"
	default:
		return "left"
	}
}

func recordScript() error {
	logger := observability.GetLogger()

	path := recordOutput
	if path == "" {
		dir := utils.GetScriptsDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create scripts dir: %w", err)
		}
		path = filepath.Join(dir, recordName+".yaml")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	evChan := hook.Start()
	defer hook.End()

	fmt.Println("Recording clicks. Press Ctrl+C to finish.")

	var actions []model.Action
	for {
		select {
		case ev := <-evChan:
			if ev.Kind != hook.MouseDown {
				continue
			}
			x, y := robotgo.Location()
			actions = append(actions, model.Action{
				Kind:   model.ActionClick,
				X:      x,
				Y:      y,
				Button: buttonName(ev.Button),
			})
			fmt.Printf("  click %d at (%d, %d)\n", len(actions), x, y)
			if recordCount > 0 && len(actions) >= recordCount {
				return saveRecording(logger, path, actions)
			}
		case <-sig:
			return saveRecording(logger, path, actions)
		}
	}
}

func saveRecording(logger *zap.Logger, path string, actions []model.Action) error {
	if len(actions) == 0 {
		return fmt.Errorf("nothing recorded")
	}
	script := model.Script{Name: recordName, Actions: actions}
	if err := config.SaveScript(path, script); err != nil {
		return err
	}
	logger.Info("script recorded", zap.String("path", path), zap.Int("actions", len(actions)))
	fmt.Printf("Saved %d actions to %s\n", len(actions), path)
	return nil
}
