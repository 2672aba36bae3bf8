package main

import (
	"fmt"
	"os"
	"time"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

var (
	stateTmpl = entry.MustTemplate("heartbeat test {} for level {}: {}")
	iterTmpl  = entry.MustTemplate("{} test log iteration={} level_test={}")
)

func main() {
	// Test cycle: disable -> PROC -> PROC+DISK -> PROC+DISK+SYS -> PROC+DISK -> PROC -> disable
	levels := []struct {
		level       int64
		description string
	}{
		{0, "Heartbeats disabled"},
		{1, "PROC heartbeats only"},
		{2, "PROC+DISK heartbeats"},
		{3, "PROC+DISK+SYS heartbeats"},
		{2, "PROC+DISK heartbeats (reducing from 3)"},
		{1, "PROC heartbeats only (reducing from 2)"},
		{0, "Heartbeats disabled (final)"},
	}

	// Create a single logger instance that we'll reconfigure
	logger := mal.NewLogger()

	for i, levelConfig := range levels {
		overrides := []string{
			"directory=./logs",
			"level=debug",
			"format=txt",
			"heartbeat_interval_s=5", // Short interval for testing
			fmt.Sprintf("heartbeat_level=%d", levelConfig.level),
		}

		// A running logger restarts when the heartbeat settings change
		if err := logger.ApplyOverride(overrides...); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to configure logger: %v\n", err)
			os.Exit(1)
		}
		if i == 0 {
			if err := logger.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to start logger: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Printf("\n--- Testing heartbeat level %d: %s ---\n", levelConfig.level, levelConfig.description)
		logger.Notice(stateTmpl, entry.Lit("started"), entry.Int64(levelConfig.level), entry.Str(levelConfig.description))

		// Generate some logs to trigger heartbeat counters
		for j := 0; j < 10; j++ {
			logger.Debug(iterTmpl, entry.Lit("debug"), entry.Int(j), entry.Int64(levelConfig.level))
			logger.Notice(iterTmpl, entry.Lit("notice"), entry.Int(j), entry.Int64(levelConfig.level))
			logger.Warning(iterTmpl, entry.Lit("warning"), entry.Int(j), entry.Int64(levelConfig.level))
			logger.Error(iterTmpl, entry.Lit("error"), entry.Int(j), entry.Int64(levelConfig.level))
			time.Sleep(100 * time.Millisecond)
		}

		// Wait for heartbeats to generate (slightly longer than the interval)
		waitTime := 6 * time.Second
		fmt.Printf("Waiting %v for heartbeats to generate...\n", waitTime)
		time.Sleep(waitTime)

		logger.Notice(stateTmpl, entry.Lit("completed"), entry.Int64(levelConfig.level), entry.Str(levelConfig.description))
	}

	// Final shutdown
	if err := logger.Shutdown(2 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to shut down logger: %v\n", err)
	}

	fmt.Println("\nHeartbeat test program completed successfully")
	fmt.Println("Check logs directory for generated log files")
}
