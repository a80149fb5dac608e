package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"xeth-go/pkg/capture"
	"xeth-go/pkg/protocol"
)

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "decode messages from a capture file or a hex string",
	UsageText: "xethctl decode [--hex HEX | FILE]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "hex",
			Usage: "decode the single message `HEX` instead of a file",
		},
	},
	Action: decodeCmd,
}

func decodeCmd(c *cli.Context) error {
	out := c.App.Writer
	if c.IsSet("hex") {
		b, err := hex.DecodeString(strings.Join(strings.Fields(c.String("hex")), ""))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error parsing hex: %v", err), 1)
		}
		msg, err := protocol.Decode(b)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Fprintln(out, describe(msg))
		return nil
	}

	if c.NArg() != 1 {
		return cli.Exit("Error: expected one capture FILE or --hex", 1)
	}
	r, err := capture.Open(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error opening capture: %v", err), 1)
	}
	defer r.Close()

	sum, err := decodeRecords(r, out)
	fmt.Fprintf(c.App.ErrWriter, "%d records: %d decoded, %d unknown kind, %d invalid\n",
		sum.records, sum.decoded, sum.unknown, sum.invalid)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error reading capture: %v", err), 1)
	}
	return nil
}

type decodeSummary struct {
	records, decoded, unknown, invalid int
}

// decodeRecords prints every record of r. Unknown kinds are reported and
// skipped; other decode failures are printed with the record index.
func decodeRecords(r *capture.Reader, out io.Writer) (decodeSummary, error) {
	var sum decodeSummary
	for {
		b, err := r.Next()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, err
		}
		sum.records++
		msg, err := protocol.Decode(b)
		switch {
		case err == nil:
			sum.decoded++
			fmt.Fprintln(out, describe(msg))
		case errors.Is(err, protocol.ErrUnknownKind):
			sum.unknown++
			kind, _ := protocol.UnknownKind(err)
			fmt.Fprintf(out, "#%d skipped unknown kind %d (%d bytes)\n", sum.records, kind, len(b))
		default:
			sum.invalid++
			fmt.Fprintf(out, "#%d %v\n", sum.records, err)
		}
	}
}
