// Command posctl operates the point-of-sale ledger from the shell.
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

	env := defaultEnv()
	for _, c := range commands(env) {
		commander.Register(c, "ledger")
	}
	commander.Register(&migrateCmd{env: env}, "admin")
	commander.Register(&warmupCmd{env: env}, "admin")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
