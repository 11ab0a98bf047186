package main

import (
	"os"

	"github.com/bobuhiro11/postclock/flag"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("postclock")

func main() {
	if err := flag.Parse(os.Args[1:]); err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}
}
