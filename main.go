package main

import (
	"os"
	_ "time/tzdata"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/presentation/cli"
	_ "go.uber.org/automaxprocs"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
