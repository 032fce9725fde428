// Command espmon is a live serial console for microcontroller development:
// it mirrors device output to the terminal with timestamps and optional
// regex filtering, appends it to a capture log, and forwards lines typed on
// stdin to the device.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/espkit/monitor"
)

// commandWindow is how long single-command mode waits for the device to
// answer before disconnecting.
const commandWindow = time.Second

func main() {
	var (
		configPath   = pflag.StringP("config", "C", "", "YAML session config file")
		port         = pflag.StringP("port", "p", "", "serial port (e.g. /dev/ttyUSB0 or COM3)")
		baud         = pflag.IntP("baud", "b", 115200, "baud rate")
		dataBits     = pflag.Int("databits", 8, "data bits (5-8)")
		parity       = pflag.String("parity", "N", "parity (N, O, E, M, S)")
		stopBits     = pflag.Int("stopbits", 1, "stop bits (1 or 2)")
		logPath      = pflag.StringP("log", "l", "", "capture log file path")
		filter       = pflag.StringP("filter", "f", "", "regex; only matching lines are shown and logged")
		noTimestamps = pflag.Bool("no-timestamps", false, "disable line timestamps")
		command      = pflag.StringP("command", "c", "", "send a single command and exit")
		pollInterval = pflag.Duration("poll-interval", monitor.DefaultPollInterval, "idle wait between port polls")
		queueSize    = pflag.Int("queue-size", monitor.DefaultQueueSize, "capture log queue depth")
		listPorts    = pflag.Bool("list-ports", false, "list available serial ports and exit")
		verbose      = pflag.BoolP("verbose", "v", false, "enable debug diagnostics")
		debugLog     = pflag.String("debug-log", "", "rotated JSON diagnostic log file")
	)
	pflag.Parse()

	logger := monitor.NewLogger(*verbose, *debugLog)

	if *listPorts {
		ports, err := monitor.AvailablePorts()
		if err != nil {
			logger.Error().Err(err).Msg("listing ports failed")
			os.Exit(1)
		}
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
			return
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg := monitor.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = monitor.LoadConfigFile(*configPath); err != nil {
			logger.Error().Err(err).Msg("loading config failed")
			os.Exit(1)
		}
	}

	// Explicit flags override config-file values.
	flags := pflag.CommandLine
	if flags.Changed("port") || cfg.PortName == "" {
		cfg.PortName = *port
	}
	if flags.Changed("baud") {
		cfg.BaudRate = *baud
	}
	if flags.Changed("databits") {
		cfg.DataBits = *dataBits
	}
	if flags.Changed("parity") {
		cfg.Parity = *parity
	}
	if flags.Changed("stopbits") {
		cfg.StopBits = *stopBits
	}
	if flags.Changed("log") {
		cfg.LogPath = *logPath
	}
	if flags.Changed("filter") {
		cfg.FilterPattern = *filter
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = *pollInterval
	}
	if flags.Changed("queue-size") {
		cfg.QueueSize = *queueSize
	}
	if *noTimestamps {
		cfg.Timestamps = false
	}

	ctrl, err := monitor.NewController(cfg, os.Stdout, logger)
	if err != nil {
		logger.Error().Err(err).Msg("invalid session configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *command != "" {
		if err := ctrl.SendOnce(ctx, *command, commandWindow); err != nil {
			logger.Error().Err(err).Msg("command failed")
			os.Exit(1)
		}
		return
	}

	// Lines typed on stdin are injected as device commands.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := ctrl.Send(line); err != nil {
				if errors.Is(err, monitor.ErrShuttingDown) {
					return
				}
				logger.Warn().Err(err).Msg("command not sent")
			}
		}
	}()

	logger.Info().Msg("monitoring serial output (Ctrl+C to stop)")
	if err := ctrl.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("monitor stopped")
		os.Exit(1)
	}
}
