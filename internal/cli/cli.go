package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xxxsen/super3/internal/app"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "super3",
	Short: "Front-end for the Supermodel arcade emulator: games, Supermodel.ini and launching",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("log-level") {
			logger.Init("", logLevel, 0, 0, 0, true)
		}
		app.SetConfigPath(configPath)
	},
	SilenceUsage: true,
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context so a
// staging copy stops between archives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logutil.GetLogger(ctx).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newRunnerCommand(runner app.IRunner) *cobra.Command {
	subcmd := &cobra.Command{
		Use:   runner.Name(),
		Short: runner.Desc(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			if err := runner.PreRun(ctx); err != nil {
				return err
			}
			if err := runner.Run(ctx); err != nil {
				return err
			}
			return runner.PostRun(ctx)
		},
	}
	runner.Init(subcmd.Flags())
	return subcmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认依次查找 ./config.json、~/.config/super3/config.json、/etc/super3.json）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "debug", "日志级别 (debug/info/warn/error)")
	for _, name := range app.RunnerList() {
		rootCmd.AddCommand(newRunnerCommand(app.MustResolveRunner(name)))
	}
}
