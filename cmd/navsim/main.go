package main

import (
	"fmt"
	"os"

	"github.com/provlabs/navvault/cmd/navsim/cmd"
	"github.com/provlabs/navvault/simapp"
)

func main() {
	simapp.SetConfig()
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
