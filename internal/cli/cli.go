// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cli implements the imuctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/imu_driver/internal/config"
	"github.com/relabs-tech/imu_driver/internal/sensors"
)

func getRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "imuctl",
		Short: "MPU-9250 inspection and telemetry tool",
		Long: `imuctl talks to an MPU-9250 over I²C.
Settings come from a KEY=VALUE file (--config, default ./imu_config.txt);
environment variables with the same names override the file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", config.DefaultPath, "path to configuration file")
	root.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		probeCmd(),
		readCmd(),
		setRangeCmd(),
		produceCmd(),
		monitorCmd(),
		debugCmd(),
	)
	return root
}

// Execute runs imuctl with os.Args.
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config and applies --log-level. A missing default file
// falls back to built-in defaults and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == config.DefaultPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	if err := config.InitGlobal(path); err != nil {
		return nil, err
	}
	cfg := config.Get()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	lvl := cfg.LogLevel
	if s, _ := cmd.Flags().GetString("log-level"); s != "" {
		l, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, errors.Wrap(err, "--log-level")
		}
		lvl = l
	}
	logrus.SetLevel(lvl)
	return cfg, nil
}

// openIMU loads the configuration and opens the bus. The device is not
// initialized.
func openIMU(cmd *cobra.Command) (*config.Config, *sensors.Manager, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := sensors.OpenFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{"backend": cfg.BusBackend, "bus": cfg.I2CBus, "imu": mgr.Name()}).Debug("bus opened")
	return cfg, mgr, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printStatus(cmd *cobra.Command, st sensors.Status) {
	out := cmd.OutOrStdout()
	known := "unknown part"
	if st.Known() {
		known = "ok"
	}
	fmt.Fprintf(out, "device:      %s\n", st.Name)
	fmt.Fprintf(out, "WHO_AM_I:    0x%02X (%s)\n", st.WhoAmI, known)
	fmt.Fprintf(out, "bypass:      %v\n", st.Bypass)
	fmt.Fprintf(out, "gyro range:  ±%d °/s (%d counts per °/s)\n", st.GyroFullScale, st.GyroSensitivity)
	fmt.Fprintf(out, "accel range: ±%d g (%d counts per g)\n", st.AccelFullScale, st.AccelSensitivity)
}
