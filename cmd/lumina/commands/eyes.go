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

	"github.com/shaveenudayanga/lumina/internal/config"
	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/stream"
)

var eyesFPS int

func init() {
	eyesCmd.Flags().IntVar(&eyesFPS, "fps", 15, "synthetic camera frame rate")
	rootCmd.AddCommand(eyesCmd)
}

var eyesCmd = &cobra.Command{
	Use:   "eyes",
	Short: "Run the eyes unit (single-client MJPEG stream server)",
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

		camera := hardware.NewSimCamera(eyesFPS)
		defer camera.Close()

		manager := stream.NewManager(camera, cfg.StreamIdleTimeout, logger)
		e := stream.NewServer(manager, logger)

		go func() {
			if err := e.Start(cfg.EyesAddr); err != nil && err != http.ErrServerClosed {
				logger.Fatal("stream server failed", zap.Error(err))
			}
		}()
		logger.Info("eyes unit ready", zap.String("addr", cfg.EyesAddr))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		manager.CancelActive()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("stream server shutdown", zap.Error(err))
		}
		logger.Info("eyes unit exited")
		return nil
	},
}
