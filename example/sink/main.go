package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

const (
	logDirectory = "./temp_logs"
	logInterval  = 200 * time.Millisecond
)

var (
	phaseTmpl = entry.MustTemplate("phase {} {}")
	levelTmpl = entry.MustTemplate("final-state {} message")
)

// main orchestrates the different sink scenarios.
func main() {
	if err := os.RemoveAll(logDirectory); err != nil {
		fmt.Printf("Warning: could not remove old log directory: %v\n", err)
	}

	fmt.Println("--- Running Sink Test Suite ---")
	fmt.Printf("! All file-based logs will be in the '%s' directory.\n\n", logDirectory)

	fmt.Println("--- SCENARIO 1: Testing sinks in isolation (new logger per test) ---")
	testFileOnly()
	testStdoutOnly()
	testStderrOnly()
	testZapOnly()
	testNoOutput()

	fmt.Println("\n--- SCENARIO 2: Testing reconfiguration on a single logger instance ---")
	testReconfigurationTransitions()

	fmt.Println("\n--- Sink Test Suite Complete ---")
	fmt.Printf("Check the '%s' directory for log files.\n", logDirectory)
}

// testFileOnly tests the default behavior: writing only to a file.
func testFileOnly() {
	logger := mal.NewLogger()
	runTestPhase(logger, "1.1: File-Only",
		"directory="+logDirectory,
		"name=file_only_log",
		"level=debug",
	)
	shutdownLogger(logger, "1.1: File-Only")
}

// testStdoutOnly tests writing only to the standard output.
func testStdoutOnly() {
	logger := mal.NewLogger()
	runTestPhase(logger, "1.2: Stdout-Only",
		"enable_console=true",
		"enable_file=false",
		"level=debug",
	)
	shutdownLogger(logger, "1.2: Stdout-Only")
}

// testStderrOnly tests writing only to the standard error stream.
func testStderrOnly() {
	fmt.Fprintln(os.Stderr, "\n---")
	logger := mal.NewLogger()
	runTestPhase(logger, "1.3: Stderr-Only",
		"enable_console=true",
		"console_target=stderr",
		"enable_file=false",
		"level=debug",
	)
	fmt.Fprintln(os.Stderr, "---")
	shutdownLogger(logger, "1.3: Stderr-Only")
}

// testZapOnly hands rendered lines to a zap logger.
func testZapOnly() {
	z, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("  ERROR: Failed to build zap logger: %v\n", err)
		os.Exit(1)
	}
	defer z.Sync()

	logger := mal.NewLogger()
	logger.AddSink(mal.NewZapSink(z))
	runTestPhase(logger, "1.4: Zap-Only",
		"enable_file=false",
		"show_timestamp=false",
		"level=debug",
	)
	shutdownLogger(logger, "1.4: Zap-Only")
}

// testNoOutput tests a configuration where every entry is processed but nothing is written.
func testNoOutput() {
	logger := mal.NewLogger()
	runTestPhase(logger, "1.5: No-Output (logs are processed and dropped)",
		"enable_console=false",
		"enable_file=false",
		"level=debug",
	)
	shutdownLogger(logger, "1.5: No-Output")
	fmt.Printf("  Processed without a sink: %d\n", logger.Stats().Processed)
}

// testReconfigurationTransitions tests the logger's ability to handle sink changes.
func testReconfigurationTransitions() {
	logger := mal.NewLogger()

	runTestPhase(logger, "2.1: Reconfig - Initial (Dual File+Stdout)",
		"directory="+logDirectory,
		"name=reconfig_log",
		"enable_console=true",
		"enable_file=true",
		"level=debug",
	)

	runTestPhase(logger, "2.2: Reconfig - Transition to Stdout-Only",
		"enable_file=false",
	)

	// The file sink resumes the sequence of existing files
	runTestPhase(logger, "2.3: Reconfig - Transition back to Dual (File+Stdout)",
		"enable_file=true",
	)

	fmt.Println("\n[Phase 2.4: Reconfig - Testing severities on final state]")
	logger.Debug(levelTmpl, entry.Lit("debug"))
	logger.Notice(levelTmpl, entry.Lit("notice"))
	logger.Warning(levelTmpl, entry.Lit("warning"))
	logger.Error(levelTmpl, entry.Lit("error"))
	time.Sleep(logInterval)

	shutdownLogger(logger, "2: Reconfiguration")
}

// runTestPhase applies overrides, starts the logger if needed and logs a phase marker pair.
func runTestPhase(logger *mal.Logger, phaseName string, overrides ...string) {
	fmt.Printf("\n[Phase %s]\n", phaseName)
	fmt.Println("  Config:", overrides)

	if err := logger.ApplyOverride(overrides...); err != nil {
		fmt.Printf("  ERROR: Failed to initialize/reconfigure logger: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Start(); err != nil {
		fmt.Printf("  ERROR: Failed to start logger: %v\n", err)
		os.Exit(1)
	}

	logger.Notice(phaseTmpl, entry.Lit("start"), entry.Str(phaseName))
	time.Sleep(logInterval)
	logger.Notice(phaseTmpl, entry.Lit("end"), entry.Str(phaseName))
	time.Sleep(logInterval)
}

// shutdownLogger is a helper to gracefully shut down the logger instance.
func shutdownLogger(l *mal.Logger, phaseName string) {
	if err := l.Shutdown(500 * time.Millisecond); err != nil {
		fmt.Printf("  WARNING: Shutdown error in phase '%s': %v\n", phaseName, err)
	}
}
