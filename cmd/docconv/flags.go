package main

import (
	"fmt"

	flag "github.com/spf13/pflag"
)

// cliFlags holds the parsed command-line options. Flags override the
// config file, which overrides defaults.
type cliFlags struct {
	config  string
	host    string
	port    int
	workers int
	verbose bool
	version bool
}

// parseFlags parses args (including the program name at args[0]).
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "path to config file (default: config.yaml if present)")
	fs.StringVar(&f.host, "host", "", "listen host (overrides config)")
	fs.IntVar(&f.port, "port", 0, "listen port (overrides config)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "worker pool size (overrides config; 0 = auto)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging to console")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return f, nil
}
