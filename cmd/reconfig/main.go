package main

import (
	"fmt"
	"sync/atomic"
	"time"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

var testTmpl = entry.MustTemplate("test log {}")

// Simulate rapid reconfiguration
func main() {
	var accepted, rejected atomic.Int64

	cfg := mal.DefaultConfig()
	cfg.Directory = "./reconfig_logs"

	err := mal.Run(cfg, true, func(logger *mal.Logger) error {
		mal.SetProvider(func() *mal.Logger { return logger })
		defer mal.SetProvider(nil)

		done := make(chan struct{})
		stopped := make(chan struct{})

		// Log something constantly
		go func() {
			defer close(stopped)
			for i := 0; ; i++ {
				select {
				case <-done:
					return
				default:
				}
				if mal.Notice(testTmpl, entry.Int(i)) {
					accepted.Add(1)
				} else {
					rejected.Add(1)
				}
				time.Sleep(time.Millisecond)
			}
		}()

		// Trigger multiple reconfigurations rapidly
		for i := 0; i < 10; i++ {
			// Different queue capacities force a pipeline restart
			if err := logger.ApplyOverride(fmt.Sprintf("queue_capacity=%d", 100*(i+1))); err != nil {
				fmt.Printf("Reconfigure error: %v\n", err)
			}
			time.Sleep(10 * time.Millisecond)
		}

		time.Sleep(500 * time.Millisecond)
		close(done)
		<-stopped
		return nil
	})
	if err != nil {
		fmt.Printf("Run error: %v\n", err)
	}

	// Entries rejected while a restart was in progress are counted, never lost silently
	fmt.Printf("Total logs accepted: %d, rejected: %d\n", accepted.Load(), rejected.Load())
}
