package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

const configFile = "simple_config.toml"

// Example TOML content
var tomlContent = `
# Example simple_config.toml
[mal]
  level = "debug"
  directory = "./simple_logs"
  format = "txt"
  extension = "log"
  show_timestamp = true
  show_level = true
  queue_capacity = 1024
  flush_interval_ms = 100
  # Other settings use the defaults
`

var (
	startTmpl     = entry.MustTemplate("application starting, pid {}")
	userTmpl      = entry.MustTemplate("debug message for user {}")
	thresholdTmpl = entry.MustTemplate("potential issue detected, threshold {}")
	errorTmpl     = entry.MustTemplate("an error occurred, code {}")
	routineTmpl   = entry.MustTemplate("goroutine {} {}")
)

func main() {
	fmt.Println("--- Simple Logger Example ---")

	// --- Setup Config ---
	if err := os.WriteFile(configFile, []byte(tomlContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write dummy config: %v\n", err)
	} else {
		fmt.Printf("Created dummy config file: %s\n", configFile)
	}

	cfg, err := mal.NewConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v. Using defaults.\n", err)
		cfg = mal.DefaultConfig()
	}

	// --- Initialize Logger ---
	logger := mal.NewLogger()
	if err := logger.ApplyConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start logger: %v\n", err)
		os.Exit(1)
	}
	mal.SetProvider(func() *mal.Logger { return logger })
	fmt.Println("Logger initialized.")

	// --- Logging ---
	mal.Debug(userTmpl, entry.Int(123))
	mal.Notice(startTmpl, entry.Int(os.Getpid()))
	mal.Warning(thresholdTmpl, entry.Float64(0.95))
	mal.Error(errorTmpl, entry.Int(500))

	// Logging from goroutines
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			mal.Notice(routineTmpl, entry.Int(id), entry.Lit("started"))
			time.Sleep(time.Duration(50+id*50) * time.Millisecond)
			// Sync waits for a free queue cell instead of failing
			mal.LogSync(mal.SeverityNotice, routineTmpl, entry.Int(id), entry.Lit("finished"))
		}(i)
	}

	wg.Wait()
	fmt.Println("Goroutines finished.")

	// --- Shutdown Logger ---
	fmt.Println("Shutting down logger...")
	if err := logger.Shutdown(2 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
	} else {
		fmt.Println("Logger shutdown complete.")
	}

	stats := logger.Stats()
	fmt.Printf("Processed %d entries, rejected %d.\n", stats.Processed, stats.Rejected())
	fmt.Println("--- Example Finished ---")
	fmt.Printf("Check log files in '%s'.\n", cfg.Directory)
}
