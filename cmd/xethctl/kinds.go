package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"xeth-go/pkg/api"
)

var kindsCommand = &cli.Command{
	Name:  "kinds",
	Usage: "print the message kind table",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print JSON instead of a table",
		},
	},
	Action: kindsCmd,
}

func kindsCmd(c *cli.Context) error {
	kinds := api.Kinds()
	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(kinds)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tCLASS\tSIZE")
	for _, k := range kinds {
		size := fmt.Sprint(k.MinSize)
		if k.Variable {
			size += "+"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", k.Kind, k.Name, k.Class, size)
	}
	return tw.Flush()
}
