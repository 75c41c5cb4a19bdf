package cmd

import (
	"flag"
)

// Flags are the command line overrides. Anything left unset falls back to
// config.toml.
type Flags struct {
	OutputDir   string
	Force       bool
	Token       string
	CookiesPath string
	UseDB       bool
	DBPath      string
	Version     bool
}

// ParseFlags reads the command line. The subcommand (currently only
// "update") is the first positional argument; everything after it is
// treated as creator URLs or user names to archive.
func ParseFlags() (Flags, string, []string) {
	flags := Flags{}

	flag.StringVar(&flags.OutputDir, "o", "", "Directory to save archives into")
	flag.StringVar(&flags.OutputDir, "output", "", "Directory to save archives into")
	flag.BoolVar(&flags.Force, "f", false, "Redownload assets even when already archived")
	flag.BoolVar(&flags.Force, "force", false, "Redownload assets even when already archived")
	flag.StringVar(&flags.Token, "t", "", "Boosty auth token (overrides config and token.txt)")
	flag.StringVar(&flags.Token, "token", "", "Boosty auth token (overrides config and token.txt)")
	flag.StringVar(&flags.CookiesPath, "cookies", "", "Path to a Netscape-format cookies file")
	flag.BoolVar(&flags.UseDB, "use-db", false, "Record archived assets in a sqlite database")
	flag.StringVar(&flags.DBPath, "db-path", "", "Path to the archive database")
	flag.BoolVar(&flags.Version, "v", false, "Display version information")
	flag.BoolVar(&flags.Version, "version", false, "Display version information")

	flag.Parse()

	args := flag.Args()
	var subcommand string

	if len(args) > 0 && args[0] == "update" {
		subcommand = args[0]
		args = args[1:]
	}

	return flags, subcommand, args
}
