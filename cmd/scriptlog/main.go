package main

import (
	"fmt"
	"os"

	"github.com/wayneeseguin/scriptlog/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "scriptlog:", err)
		os.Exit(1)
	}
}
