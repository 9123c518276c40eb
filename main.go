package main

import (
	"os"

	"github.com/yihu111/tech-europe-hackathon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
