package main

import (
	"fmt"
	"os"

	"github.com/gookit/slog"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		slog.Error(fmt.Sprintf("[Oracle] %v", err))
		os.Exit(1)
	}
}
