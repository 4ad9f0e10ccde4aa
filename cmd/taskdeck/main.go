package main

import (
	"flag"
	"fmt"
	"os"

	"taskdeck/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group plain output by pending/done")
	plain := flag.Bool("plain", false, "force non-interactive listing")
	configDir := flag.String("config", "", "config directory (default: XDG config dir)")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		Group:     *groupPending,
		Plain:     *plain,
		ConfigDir: *configDir,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
