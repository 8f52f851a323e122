package main

import (
	"octopanel/internal/cli/cmd"
	"octopanel/internal/config"
)

func main() {
	cmd.Execute(config.GetPort())
}
