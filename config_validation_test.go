package monitor

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.PortName = "COM1"
	return cfg
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := ValidateConfig(&cfg); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidateConfig_EmptyPortName(t *testing.T) {
	cfg := validConfig()
	cfg.PortName = ""

	err := ValidateConfig(&cfg)
	if err == nil {
		t.Fatal("expected error for empty port name")
	}
	if !strings.Contains(err.Error(), "port name cannot be empty") {
		t.Fatalf("expected 'port name cannot be empty' error, got: %v", err)
	}
}

func TestValidateConfig_BaudRate(t *testing.T) {
	tests := []struct {
		baudRate int
		wantErr  bool
	}{
		{1200, false},
		{9600, false},
		{74880, false}, // ESP8266 bootloader rate
		{115200, false},
		{921600, false},
		{12345, true},
		{0, true},
		{-9600, true},
		{1000000, true},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.BaudRate = tt.baudRate

		err := ValidateConfig(&cfg)
		if (err != nil) != tt.wantErr {
			t.Fatalf("baudRate=%d: wantErr=%v, got=%v", tt.baudRate, tt.wantErr, err)
		}
		if tt.wantErr && !strings.Contains(err.Error(), "invalid baud rate") {
			t.Fatalf("baudRate=%d: expected 'invalid baud rate' error, got: %v", tt.baudRate, err)
		}
	}
}

func TestValidateConfig_DataBits(t *testing.T) {
	tests := []struct {
		dataBits int
		wantErr  bool
	}{
		{0, false}, // zero means default
		{5, false},
		{6, false},
		{7, false},
		{8, false},
		{4, true},
		{9, true},
		{-1, true},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.DataBits = tt.dataBits

		err := ValidateConfig(&cfg)
		if (err != nil) != tt.wantErr {
			t.Fatalf("dataBits=%d: wantErr=%v, got=%v", tt.dataBits, tt.wantErr, err)
		}
	}
}

func TestValidateConfig_PollInterval(t *testing.T) {
	cfg := validConfig()
	cfg.PollInterval = 0
	if err := ValidateConfig(&cfg); err == nil {
		t.Fatal("expected error for zero poll interval")
	}

	cfg.PollInterval = -time.Millisecond
	if err := ValidateConfig(&cfg); err == nil {
		t.Fatal("expected error for negative poll interval")
	}
}

func TestValidateConfig_QueueSize(t *testing.T) {
	tests := []struct {
		size    int
		wantErr bool
	}{
		{0, false}, // zero means default
		{256, false},
		{65536, false},
		{65537, true},
		{-1, true},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.QueueSize = tt.size

		err := ValidateConfig(&cfg)
		if (err != nil) != tt.wantErr {
			t.Fatalf("queueSize=%d: wantErr=%v, got=%v", tt.size, tt.wantErr, err)
		}
	}
}

func TestValidateConfig_ReadBufferSize(t *testing.T) {
	cfg := validConfig()
	cfg.ReadBufferSize = MaxBufferSize + 1
	if err := ValidateConfig(&cfg); err == nil {
		t.Fatal("expected error for oversized read buffer")
	}

	cfg.ReadBufferSize = -1
	if err := ValidateConfig(&cfg); err == nil {
		t.Fatal("expected error for negative read buffer")
	}
}
