package main

import (
	"github.com/mengelbart/framebridge/cmdmain"

	_ "github.com/mengelbart/framebridge/subcmd"
)

func main() {
	cmdmain.Main()
}
