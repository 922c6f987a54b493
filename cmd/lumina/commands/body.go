package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/body"
	"github.com/shaveenudayanga/lumina/internal/config"
	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/transport"
)

func init() {
	rootCmd.AddCommand(bodyCmd)
}

var bodyCmd = &cobra.Command{
	Use:   "body",
	Short: "Run the body unit (dispatcher, motion, audio, monitor)",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg, err := config.Load()
		if err != nil {
			logger.Error("configuration invalid", zap.Error(err))
			return err
		}

		indicator := hardware.NewSimIndicator()
		display := hardware.NewSimDisplay(logger)
		display.ShowText("Lumina Booting...")

		peripherals := body.Peripherals{
			Display:   display,
			Indicator: indicator,
			PanServo:  hardware.NewSimServo((cfg.PanSafeMin + cfg.PanSafeMax) / 2),
			TiltServo: hardware.NewSimServo((cfg.TiltSafeMin + cfg.TiltSafeMax) / 2),
			NewMic: func() (hardware.Microphone, error) {
				return hardware.NewSimMicrophone(cfg.SampleRate, cfg.BlockSize), nil
			},
			NewSpeaker: func() (hardware.Speaker, error) {
				return hardware.NewSimSpeaker(), nil
			},
		}

		serial := transport.NewSerialChannel(os.Stdin, os.Stdout, logger)
		restart := func() { os.Exit(1) }

		rt, err := body.New(cfg, peripherals, serial, restart, logger)
		if err != nil {
			body.BootFailure(indicator, logger, err)
			return err
		}

		srv := body.NewMonitorServer(rt, logger)
		go func() {
			if err := srv.Start(cfg.MonitorAddr); err != nil && err != http.ErrServerClosed {
				logger.Fatal("monitor server failed", zap.Error(err))
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = rt.Run(ctx)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("monitor server shutdown", zap.Error(serr))
		}

		if err == context.Canceled {
			logger.Info("body unit exited")
			return nil
		}
		return err
	},
}
