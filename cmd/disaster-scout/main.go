package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var root = &cobra.Command{
		Use:           "disaster-scout",
		Short:         "Find places affected by a disaster idea and gather news about them",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(serveCMD(), runCMD(), runsCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
