package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const shellHelp = `Type any mycraft command without the program name, for example
"services list --trade PAINTER" or "chat send 4 hello".

Shell commands:
  back      go to the previous page
  history   show visited pages
  help      show this help
  exit      leave the shell`

func (a *App) shellCmd(build Build) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.repl(cmd, build)
		},
	}
}

// repl reads commands line by line and runs them against the shared App.
func (a *App) repl(cmd *cobra.Command, build Build) error {
	ctx := cmd.Context()
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := a.prompt(fmt.Sprintf("mycraft %s> ", a.router.Current().Path))
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprintln(a.out, shellHelp)
		case "back":
			loc, ok, err := a.router.Back()
			if err != nil {
				fmt.Fprintf(a.errOut, "Error: %v\n", err)
				continue
			}
			if !ok {
				fmt.Fprintln(a.out, "No previous page")
				continue
			}
			printLocation(a.out, loc)
		case "history":
			for i, loc := range a.router.History() {
				fmt.Fprintf(a.out, "%3d  %s\n", i+1, loc.Path)
			}
		case "shell":
			fmt.Fprintln(a.out, "Already in the shell")
		default:
			sub := a.RootCommand(build)
			sub.SetArgs(args)
			if err := sub.ExecuteContext(ctx); err != nil {
				fmt.Fprintf(a.errOut, "Error: %v\n", err)
			}
		}
	}
}
