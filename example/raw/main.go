package main

import (
	"fmt"
	"time"
	"unsafe"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

var (
	recordTmpl = entry.MustTemplate("request {} by {} took {}ms ok={} payload={} at {}")
	shortTmpl  = entry.MustTemplate("only {} and {}")
)

func main() {
	fmt.Println("--- Output Format Test ---")

	byteRecord := []byte("binary\ndata\twith\x00null")
	user := "test\tuser"
	marker := 42

	for _, format := range []string{"txt", "json", "raw"} {
		fmt.Printf("\n[%s]\n", format)

		cfg := mal.DefaultConfig()
		cfg.Format = format
		cfg.EnableFile = false
		cfg.EnableConsole = true
		cfg.ShowTimestamp = false

		err := mal.Run(cfg, true, func(logger *mal.Logger) error {
			logger.Notice(recordTmpl,
				entry.Uint64(9223372036854775807),
				entry.Str(user),
				entry.Float64(15.7),
				entry.Bool(true),
				entry.Bytes(byteRecord),
				entry.Ptr(unsafe.Pointer(&marker)),
			)
			// Mismatched argument counts are rendered with markers
			logger.Warning(shortTmpl, entry.Int(1))
			logger.Warning(shortTmpl, entry.Int(1), entry.Int(2), entry.Lit("extra"))
			return logger.Flush(100 * time.Millisecond)
		})
		if err != nil {
			fmt.Printf("Run failed: %v\n", err)
			return
		}
	}

	fmt.Println("\n--- Test Complete ---")
}
