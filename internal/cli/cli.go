// Package cli implements the omnibar command line.
package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Suggest *SuggestCommand
	Title   *TitleCommand
	Visit   *VisitCommand
	History *HistoryCommand
	Clear   *ClearCommand
	Status  *StatusCommand
	Serve   *ServeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "omnibar"
	parser.LongDescription = "Address-bar autocomplete over popular domains and local browsing history."

	cmds := &commands{
		Suggest: &SuggestCommand{globals: &globals, version: version},
		Title:   &TitleCommand{globals: &globals, version: version},
		Visit:   &VisitCommand{globals: &globals, version: version},
		History: &HistoryCommand{globals: &globals, version: version},
		Clear:   &ClearCommand{globals: &globals, version: version},
		Status:  &StatusCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("suggest", "Suggest URLs for typed text", "List every indexed URL containing the typed text, corpus domains first.", cmds.Suggest)
	parser.AddCommand("title", "Print the indexed title for a URL", "Print the title recorded for an exact URL, if any.", cmds.Title)
	parser.AddCommand("visit", "Record a page visit", "Append a page visit to history, subject to the tracking preference.", cmds.Visit)
	parser.AddCommand("history", "List recent history", "List recorded visits, newest first.", cmds.History)
	parser.AddCommand("clear", "Clear ALL history", "Delete every recorded visit. Destructive operation with safety prompt.", cmds.Clear)
	parser.AddCommand("status", "Show index and history statistics", "Show suggestion index size, history statistics, and daemon state.", cmds.Status)
	parser.AddCommand("serve", "Start the suggestion daemon", "Start the local HTTP suggestion service.", cmds.Serve)

	return parser, &globals, cmds
}

// Run is the main entry point for the omnibar CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("omnibar %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
