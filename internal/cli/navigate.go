package cli

import (
	"fmt"
	"io"

	"github.com/atinyakov/mycraft/internal/client/router"
	"github.com/spf13/cobra"
)

func (a *App) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Resolve a client path and show where the guard sends you",
		Example: `  mycraft open /services/12
  mycraft open /my-jobs`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			loc, err := a.router.Navigate(args[0])
			if err != nil {
				return err
			}
			printLocation(a.out, loc)
			return nil
		},
	}
}

func printLocation(w io.Writer, loc router.Location) {
	fmt.Fprintf(w, "%s %s %s\n", titleStyle.Render(loc.Decision.String()), loc.Path, idStyle.Render("("+loc.Route.Name+")"))
	for k, v := range loc.Params {
		fmt.Fprintf(w, "  %s = %s\n", k, v)
	}
}
