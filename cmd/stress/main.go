package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

const (
	totalBursts    = 100
	logsPerBurst   = 500
	maxMessageSize = 10000
	numWorkers     = 500
)

const configFile = "stress_config.toml"

// Example TOML content for stress test
var tomlContent = `
# Example stress_config.toml
[mal]
  level = "debug"
  name = "stress_test"
  directory = "./logs"
  format = "txt"
  extension = "log"
  show_timestamp = true
  show_level = true
  queue_capacity = 512
  pool_slot_count = 4096
  pool_slot_size = 512
  overflow = "heap"
  max_overflow_kb = 65536
  max_size_kb = 1000 # Force frequent rotation
  max_files = 20 # Force cleanup
  flush_interval_ms = 50
  heartbeat_level = 2
  heartbeat_interval_s = 5
`

var levels = []mal.Severity{
	mal.SeverityDebug,
	mal.SeverityNotice,
	mal.SeverityWarning,
	mal.SeverityError,
}

var burstTmpl = entry.MustTemplate("{} wkr={} bst={} seq={} rnd={}")

var logger *mal.Logger

func generateRandomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.Intn(len(chars))])
	}
	return sb.String()
}

// logBurst simulates a burst of logging activity; every other burst waits
// for room in the queue instead of dropping
func logBurst(burstID int, dropped *atomic.Int64) {
	wait := burstID%2 == 0
	for i := 0; i < logsPerBurst; i++ {
		level := levels[rand.Intn(len(levels))]
		msg := generateRandomMessage(rand.Intn(maxMessageSize) + 10)
		args := []entry.Arg{
			entry.Str(msg),
			entry.Int(burstID % numWorkers),
			entry.Int(burstID),
			entry.Int(i),
			entry.Int64(rand.Int63()),
		}

		var ok bool
		if wait {
			ok = logger.LogSync(level, burstTmpl, args...)
		} else {
			ok = logger.Log(level, burstTmpl, args...)
		}
		if !ok {
			dropped.Add(1)
		}
	}
}

// worker goroutine function
func worker(burstChan chan int, wg *sync.WaitGroup, completedBursts, dropped *atomic.Int64) {
	defer wg.Done()
	for burstID := range burstChan {
		logBurst(burstID, dropped)
		completed := completedBursts.Add(1)
		if completed%10 == 0 || completed == totalBursts {
			fmt.Printf("\rProgress: %d/%d bursts completed", completed, totalBursts)
		}
	}
}

func main() {
	fmt.Println("--- Logger Stress Test ---")

	// --- Setup Config ---
	if err := os.WriteFile(configFile, []byte(tomlContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write dummy config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created dummy config file: %s\n", configFile)

	cfg, err := mal.NewConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v.\n", err)
		os.Exit(1)
	}
	_ = os.RemoveAll(cfg.Directory) // Clean previous run's log directory before starting

	// --- Initialize Logger ---
	logger = mal.NewLogger()
	if err := logger.ApplyConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start logger: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logger initialized. Logs will be written to: %s\n", cfg.Directory)

	fmt.Printf("Starting stress test: %d workers, %d bursts, %d logs/burst.\n",
		numWorkers, totalBursts, logsPerBurst)
	fmt.Println("Odd bursts drop on a full queue, even bursts wait.")
	fmt.Println("Press Ctrl+C to stop early.")

	// --- Setup Workers and Signal Handling ---
	burstChan := make(chan int, numWorkers)
	var wg sync.WaitGroup
	var completedBursts, dropped atomic.Int64
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stopChan := make(chan struct{})

	go func() {
		<-sigChan
		fmt.Println("\n[Signal Received] Stopping burst generation...")
		close(stopChan)
		// Waiting producers give up instead of blocking shutdown
		logger.Interrupt()
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go worker(burstChan, &wg, &completedBursts, &dropped)
	}

	// --- Run Test ---
	startTime := time.Now()
	for i := 1; i <= totalBursts; i++ {
		select {
		case burstChan <- i:
		case <-stopChan:
			fmt.Println("[Signal Received] Halting burst submission.")
			goto endLoop
		}
	}
endLoop:
	close(burstChan)

	fmt.Println("\nWaiting for workers to finish...")
	wg.Wait()
	duration := time.Since(startTime)
	finalCompleted := completedBursts.Load()

	fmt.Printf("\n--- Test Finished ---")
	fmt.Printf("\nCompleted %d/%d bursts in %v\n", finalCompleted, totalBursts, duration.Round(time.Millisecond))
	if finalCompleted > 0 && duration.Seconds() > 0 {
		logsPerSec := float64(finalCompleted*logsPerBurst) / duration.Seconds()
		fmt.Printf("Approximate Logs/sec: %.2f\n", logsPerSec)
	}

	// --- Shutdown Logger ---
	fmt.Println("Shutting down logger (allowing up to 10s)...")
	if err := logger.Shutdown(10 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
	} else {
		fmt.Println("Logger shutdown complete.")
	}

	stats := logger.Stats()
	fmt.Printf("Processed: %d, dropped: %d (channel full %d, alloc failures %d, interrupted %d)\n",
		stats.Processed, dropped.Load(), stats.ChannelFull, stats.AllocFailures, stats.Interrupted)
	fmt.Printf("Check log files in '%s'.\n", cfg.Directory)
}
