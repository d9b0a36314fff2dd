package main

import (
	"os"

	"github.com/msto63/gridwerk/cmd/gridwerk/cmd"
	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// 2: the commands were rejected, 1: anything else
		if mdwerror.GetCode(err).IsCommandError() {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
