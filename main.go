package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	// no command given: run the server, as the binary always did
	if flag.NArg() == 0 {
		os.Exit(int((&serveCmd{}).Execute(context.Background(), flag.CommandLine)))
	}
	os.Exit(int(commander.Execute(context.Background())))
}
