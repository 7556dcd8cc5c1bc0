// Package main is the entry point for the tilawa recitation player.
package main

import (
	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/cmd"
	"github.com/tilawa-cli/tilawa/config"
	"github.com/tilawa-cli/tilawa/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
