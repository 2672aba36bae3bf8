package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/compat"
)

func main() {
	cfg := mal.DefaultConfig()
	cfg.Directory = "/var/log/fasthttp"
	cfg.Level = "debug"
	cfg.QueueCapacity = 2048

	builder := compat.NewBuilder().WithConfig(cfg)

	// Create fasthttp adapter with custom level detection
	fasthttpAdapter, err := builder.BuildFastHTTP(
		compat.WithDefaultLevel(mal.SeverityNotice),
		compat.WithLevelDetector(customLevelDetector),
	)
	if err != nil {
		panic(err)
	}
	logger, _ := builder.GetLogger()
	defer logger.Shutdown()

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		// Other server settings
		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		panic(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customLevelDetector(msg string) mal.Severity {
	// Specific fasthttp message patterns
	if strings.Contains(msg, "connection cannot be served") {
		return mal.SeverityWarning
	}
	if strings.Contains(msg, "error when serving connection") {
		return mal.SeverityError
	}

	return compat.DetectLogLevel(msg)
}
