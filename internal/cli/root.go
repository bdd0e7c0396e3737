package cli

import (
	"fmt"
	"strings"
)

const usage = `cairn - hierarchical GitHub issue creation

Usage:
  cairn [global flags] <command> [flags]

Commands:
  create     Create an issue hierarchy from an input file
  validate   Validate an input file without touching GitHub
  status     Show the state of a run
  runs       List recorded runs
  cleanup    Delete a recorded run
  login      Authenticate with GitHub (--status, --token)
  logout     Remove the stored GitHub token
  db         Database migration tools (version, check, downgrade)
  help       Show this help
  version    Show version

Global Flags:
  --db PATH      State database path (default: from ~/.cairn/config.json)
  --verbose      Enable debug logging

Run 'cairn <command> --help' for more information on a command.`

// globalFlags holds flags that are available to all subcommands.
type globalFlags struct {
	dbPath  string
	verbose bool
}

// parseGlobalFlags extracts global flags from the front of the argument list
// and returns the remaining args. Global flags must come before the subcommand.
func parseGlobalFlags(args []string) (globalFlags, []string) {
	var gf globalFlags

	remaining := args
	for len(remaining) > 0 {
		switch {
		case remaining[0] == "--verbose":
			gf.verbose = true
			remaining = remaining[1:]
		case remaining[0] == "--db" && len(remaining) > 1:
			gf.dbPath = remaining[1]
			remaining = remaining[2:]
		case strings.HasPrefix(remaining[0], "--db="):
			gf.dbPath = strings.TrimPrefix(remaining[0], "--db=")
			remaining = remaining[1:]
		default:
			return gf, remaining
		}
	}

	return gf, remaining
}

// Run dispatches the CLI based on the provided arguments.
func Run(args []string, version string) error {
	gf, remaining := parseGlobalFlags(args)

	if len(remaining) == 0 {
		fmt.Println(usage)
		return nil
	}

	cmd := remaining[0]
	subArgs := remaining[1:]

	switch cmd {
	case "help", "--help", "-h":
		fmt.Println(usage)
		return nil
	case "version", "--version", "-v":
		fmt.Printf("cairn version %s\n", version)
		return nil
	case "create":
		return runCreate(subArgs, gf)
	case "validate":
		return runValidate(subArgs, gf)
	case "status":
		return runStatus(subArgs, gf)
	case "runs":
		return runRuns(subArgs, gf)
	case "cleanup":
		return runCleanup(subArgs, gf)
	case "login":
		return runLogin(subArgs, gf)
	case "logout":
		return runLogout(subArgs, gf)
	case "db":
		return runDB(subArgs, gf)
	default:
		return fmt.Errorf("unknown command: %s\nRun 'cairn help' for usage", strings.TrimSpace(cmd))
	}
}
