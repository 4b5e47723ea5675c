package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/nap-labs/napguard/internal/app"
	"github.com/nap-labs/napguard/internal/cliconfig"
	"github.com/nap-labs/napguard/pkg/log"
)

const longHelp = `napguard keeps the machine awake while named inhibitors are active and
suspends it after a countdown once every inhibitor goes inactive.

Inhibitors are raised either manually (POST /coffee) or by enabling a
managed systemd service (POST /services/<name>/on). When the last
inhibitor drops, a countdown arms; at expiry the machine suspends via
systemctl. Failed service operations are recovered with an escalating
retry protocol.`

const exampleUsage = `  napguard --timer 30
  napguard --config ~/.napguard/config.toml --verbose`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath      string
		timerMinutes int
	)

	root := &cobra.Command{
		Use:     "napguard",
		Short:   "Suspend the machine when nothing wants it awake",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if changed["timer"] {
				cfg.TimerDuration = time.Duration(timerMinutes) * time.Minute
			}

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := log.NewZerologAdapter(cfg.Verbose)
			logger.Info("starting napguard",
				log.String("version", getVersion()),
				log.String("addr", cfg.Addr()),
				log.Duration("timer", cfg.TimerDuration))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			daemon := app.New(cfg, cfgFile, logger)
			if err := daemon.Run(ctx); err != nil {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "address to bind the control API to")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to bind the control API to")
	flags.IntVarP(&timerMinutes, "timer", "t", int(cfg.TimerDuration/time.Minute), "suspend countdown duration in minutes")
	flags.StringVarP(&cfgPath, "config", "c", "", "path to config file (default ~/.napguard/config.toml)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
