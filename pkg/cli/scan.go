package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/probekit/probekit/pkg/payloads"
	"github.com/probekit/probekit/pkg/probe"
	"github.com/probekit/probekit/pkg/scan"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a vulnerability probing scan against one target",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("target")
			if target == "" {
				return errors.New("please provide --target")
			}
			attest := viper.GetString("attest")
			if attest == "" {
				return errors.New("please provide --attest to confirm authorization to test this target")
			}

			profile, err := payloads.ParseProfile(viper.GetString("profile"))
			if err != nil {
				return err
			}

			logLevel := slog.LevelInfo
			if viper.GetBool("verbose") {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

			catalog := payloads.Builtin()
			if path := viper.GetString("payloads"); path != "" {
				catalog, err = payloads.LoadFile(path)
				if err != nil {
					return fmt.Errorf("loading payload catalog: %w", err)
				}
			}

			probeCfg := probe.DefaultConfig()
			probeCfg.Logger = logger
			if rl := viper.GetFloat64("rate"); rl > 0 {
				probeCfg.RateLimit = rl
			}

			cfg := scan.DefaultConfig()
			cfg.Profile = profile
			cfg.Catalog = catalog
			cfg.Probe = probeCfg
			cfg.Logger = logger
			if c := viper.GetInt("concurrency"); c > 0 {
				cfg.Concurrency = c
			}
			if m := viper.GetInt("max-probes"); m > 0 {
				cfg.MaxProbes = m
			}
			if b := viper.GetDuration("budget"); b > 0 {
				cfg.Budget = b
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(os.Stderr, "Scanning %s (profile: %s)\n", target, profile)
			result := scan.NewSupervisor(cfg).Run(ctx, target)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			if path := viper.GetString("output"); path != "" {
				if err := os.WriteFile(path, out, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Result written to %s\n", path)
			} else {
				fmt.Println(string(out))
			}

			fmt.Fprintf(os.Stderr, "State: %s  Findings: %d  Risk: %d (%s)\n",
				result.State, len(result.Findings), result.Risk.Numeric, result.Risk.Level())

			if result.State == scan.StateFailed {
				return fmt.Errorf("scan failed: %s", result.FailureReason)
			}
			return nil
		},
	}

	cmd.Flags().String("target", "", "Target to scan (URL, hostname, or IP)")
	cmd.Flags().String("attest", "", "Authorization statement (e.g., 'I am authorized to test this target')")
	cmd.Flags().String("profile", string(payloads.ProfileFull), "Scan profile: full, injection, quick, or passive")
	cmd.Flags().String("payloads", "", "YAML payload catalog replacing the built-in set")
	cmd.Flags().Int("concurrency", scan.DefaultConcurrency, "Probe worker count")
	cmd.Flags().Int("max-probes", 0, "Cap on payload probes issued (0 = unlimited)")
	cmd.Flags().Duration("budget", 10*time.Minute, "Wall-clock budget for the whole scan")
	cmd.Flags().Float64("rate", 20, "Maximum requests per second against the target")
	_ = viper.BindPFlag("target", cmd.Flags().Lookup("target"))
	_ = viper.BindPFlag("attest", cmd.Flags().Lookup("attest"))
	_ = viper.BindPFlag("profile", cmd.Flags().Lookup("profile"))
	_ = viper.BindPFlag("payloads", cmd.Flags().Lookup("payloads"))
	_ = viper.BindPFlag("concurrency", cmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("max-probes", cmd.Flags().Lookup("max-probes"))
	_ = viper.BindPFlag("budget", cmd.Flags().Lookup("budget"))
	_ = viper.BindPFlag("rate", cmd.Flags().Lookup("rate"))

	return cmd
}
