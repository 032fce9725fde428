package monitor_test

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/espkit/monitor"
)

func Example() {
	cfg := monitor.DefaultConfig()
	cfg.PortName = "/dev/ttyUSB0"
	cfg.LogPath = "logs/device.log"
	cfg.FilterPattern = "ERR|WARN"

	ctrl, err := monitor.NewController(cfg, os.Stdout, zerolog.Nop())
	if err != nil {
		fmt.Println("config error:", err)
		return
	}

	if err := ctrl.Run(context.Background()); err != nil {
		fmt.Println("monitor stopped:", err)
	}
}

func Example_sendOnce() {
	cfg := monitor.DefaultConfig()
	cfg.PortName = "/dev/ttyUSB0"

	ctrl, err := monitor.NewController(cfg, os.Stdout, zerolog.Nop())
	if err != nil {
		fmt.Println("config error:", err)
		return
	}

	// Send one command and echo the device's answer for a second.
	if err := ctrl.SendOnce(context.Background(), "restart", monitor.DefaultPollInterval*100); err != nil {
		fmt.Println("command failed:", err)
	}
}
