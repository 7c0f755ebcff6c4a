package main

import (
	"os"

	"github.com/npole/herodispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
