package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
	"github.com/scanprep/pix/pipeline"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "pixprep",
	Short:         "Preprocess scanned document images for text recognition",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("gpu", false, "Run point operations on a WebGPU device when available")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) (zerolog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// newRunner builds a pipeline runner from the persistent flags. The
// returned release func frees GPU resources and must always be called.
func newRunner(cmd *cobra.Command) (*pipeline.Runner, zerolog.Logger, func(), error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, log, func() {}, err
	}
	opts := []pipeline.Option{pipeline.WithLogger(log)}
	release := func() {}
	if useGPU, _ := cmd.Flags().GetBool("gpu"); useGPU {
		device, queue, free, err := openGPU()
		if err != nil {
			log.Warn().Err(err).Msg("GPU unavailable, running on CPU")
		} else {
			opts = append(opts, pipeline.WithGPU(device, queue))
			release = free
		}
	}
	return pipeline.New(opts...), log, release, nil
}

func openGPU() (*wgpu.Device, *wgpu.Queue, func(), error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, nil, nil, fmt.Errorf("WebGPU not available")
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, nil, nil, fmt.Errorf("no GPU adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, nil, nil, fmt.Errorf("no GPU device: %w", err)
	}
	queue := device.GetQueue()
	free := func() {
		queue.Release()
		device.Release()
		adapter.Release()
		instance.Release()
	}
	return device, queue, free, nil
}
