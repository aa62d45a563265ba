package cli

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/imu_driver/internal/app"
	"github.com/relabs-tech/imu_driver/internal/sensors"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:        "probe",
		SuggestFor: []string{"pro", "prob"},
		Short:      "scan the bus and report the MPU-9250 identity and ranges",
		Example:    "  imuctl probe --config ./imu_config.txt",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := openIMU(cmd)
			if err != nil {
				return err
			}
			defer mgr.Close()

			out := cmd.OutOrStdout()
			if err := mgr.Init(); err != nil {
				return err
			}
			for _, f := range sensors.Scan(mgr.Bus()) {
				fmt.Fprintf(out, "found %-8s at 0x%02X (id 0x%02X)\n", f.Part, f.Addr, f.WhoAmI)
			}
			st, err := mgr.Probe()
			if err != nil {
				return err
			}
			printStatus(cmd, st)
			return nil
		},
	}
}

func readCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "print decoded samples",
		Example: `  imuctl read --count 10
  imuctl read --raw --interval 50ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			raw, _ := cmd.Flags().GetBool("raw")
			interval, _ := cmd.Flags().GetDuration("interval")

			_, mgr, err := openIMU(cmd)
			if err != nil {
				return err
			}
			defer mgr.Close()
			if err := mgr.Init(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				if i > 0 {
					time.Sleep(interval)
				}
				if raw {
					r, err := mgr.ReadRaw()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "ax=%6d ay=%6d az=%6d temp=%6d gx=%6d gy=%6d gz=%6d\n",
						r.Ax, r.Ay, r.Az, r.Temp, r.Gx, r.Gy, r.Gz)
					continue
				}
				s, err := mgr.Next()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1, "number of samples")
	cmd.Flags().Bool("raw", false, "print raw counts instead of physical units")
	cmd.Flags().Duration("interval", 100*time.Millisecond, "delay between samples")
	return cmd
}

func setRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set-range",
		Short:   "change the gyro and/or accel full scale",
		Example: "  imuctl set-range --gyro 1000 --accel 8",
		RunE: func(cmd *cobra.Command, args []string) error {
			gyro, _ := cmd.Flags().GetInt("gyro")
			accel, _ := cmd.Flags().GetInt("accel")
			if gyro == 0 && accel == 0 {
				return fmt.Errorf("set-range: give --gyro and/or --accel")
			}

			_, mgr, err := openIMU(cmd)
			if err != nil {
				return err
			}
			defer mgr.Close()
			if err := mgr.Init(); err != nil {
				return err
			}
			if err := mgr.SetRanges(gyro, accel); err != nil {
				return err
			}
			st, err := mgr.Probe()
			if err != nil {
				return err
			}
			printStatus(cmd, st)
			return nil
		},
	}
	cmd.Flags().Int("gyro", 0, "gyro full scale in °/s: 250, 500, 1000 or 2000")
	cmd.Flags().Int("accel", 0, "accel full scale in g: 2, 4, 8 or 16")
	return cmd
}

func produceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "produce",
		Short: "sample continuously and publish to MQTT, serial and the OLED",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, mgr, err := openIMU(cmd)
			if err != nil {
				return err
			}
			defer mgr.Close()

			ctx, stop := signalContext(cmd)
			defer stop()
			return app.RunProducer(ctx, cfg, mgr)
		},
	}
}

func monitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "print samples published by a producer",
		Example: `  imuctl monitor
  imuctl monitor --serial
  imuctl monitor --listen :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			if fromSerial, _ := cmd.Flags().GetBool("serial"); fromSerial {
				return app.RunSerialMonitor(ctx, cfg, cmd.OutOrStdout())
			}
			listen, _ := cmd.Flags().GetString("listen")
			return app.RunMonitor(ctx, cfg, cmd.OutOrStdout(), listen)
		},
	}
	cmd.Flags().Bool("serial", false, "read $PIMU sentences from SERIAL_PORT instead of MQTT")
	cmd.Flags().String("listen", "", "also serve the latest sample as JSON on this address, e.g. :8080")
	return cmd
}

func debugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "serve the register debug WebSocket and /api/imu",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, mgr, err := openIMU(cmd)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.Init(); err != nil {
				logrus.WithError(err).Warn("IMU initialization failed, use the init action to retry")
			}
			addr := cfg.DebugServerAddr
			if a, _ := cmd.Flags().GetString("addr"); a != "" {
				addr = a
			}
			if len(cfg.DebugAllowedWrites) == 0 {
				logrus.Info("DEBUG_ALLOWED_WRITES is empty, register writes are disabled")
			}

			ctx, stop := signalContext(cmd)
			defer stop()
			return app.NewDebugServer(mgr, cfg.DebugAllowedWrites).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides DEBUG_SERVER_ADDR")
	return cmd
}
