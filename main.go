package main

import (
	cmd "github.com/getzep/ducks/cmd/ducks"
	"github.com/getzep/ducks/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting ducks")
	cmd.Execute()
}
