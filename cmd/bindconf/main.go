package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lwmacct/251124-bindconf/internal/commands/bindconf"
)

var version = "0.1.0"

func main() {
	if err := bindconf.Run(context.Background(), version, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
