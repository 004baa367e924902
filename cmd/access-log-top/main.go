package main

import (
	"os"

	"github.com/Nao-Mk2/access-log-top/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
