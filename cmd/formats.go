// Package cmd holds the cobra subcommands attached to the CLI root.
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maxaltenhuber/framegrab/internal/capture"
	"github.com/maxaltenhuber/framegrab/internal/devices"
	"github.com/maxaltenhuber/framegrab/internal/logging"
	"github.com/maxaltenhuber/framegrab/internal/v4l2"
)

// CreateFormatsCmd creates the formats command.
func CreateFormatsCmd() *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "formats [device]",
		Short: "Show a device's formats and negotiation result",
		Long: `Enumerates the pixel formats a V4L2 capture device offers and shows ` +
			`which encoding a capture session on it would negotiate. With no device ` +
			`argument, lists all discovered capture devices instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logging.DisableJournal()
			logger := logging.GetLogger("main")

			if len(args) == 0 {
				return listDevices()
			}

			path, err := devices.ResolveDevicePath(args[0])
			if err != nil {
				return err
			}

			dev, err := v4l2.Open(path)
			if err != nil {
				return err
			}
			defer dev.Close()

			res, err := capture.Probe(dev, encoding, logger)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %s (driver %s, bus %s)\n",
				path, res.Capability.Card, res.Capability.Driver, res.Capability.BusInfo)
			if res.Input >= 0 {
				fmt.Printf("current input: %d\n", res.Input)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FOURCC\tDESCRIPTION\tEMULATED\tCOMPRESSED\tENCODING")
			for _, f := range res.Formats {
				tag := "-"
				if d := capture.Lookup(f.PixelFormat); d != nil {
					tag = d.Output
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n",
					v4l2.FourCCString(f.PixelFormat), f.Description,
					f.Emulated(), f.Compressed(), tag)
			}
			w.Flush()

			if res.Selected != nil {
				fmt.Printf("negotiated encoding: %s (%s)\n",
					res.Selected.Output, v4l2.FourCCString(res.Selected.Native))
			} else {
				fmt.Println("negotiated encoding: none")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&encoding, "encoding", "e", "", "Request a specific output encoding tag")
	return cmd
}

func listDevices() error {
	scanner := devices.NewScanner(logging.GetLogger("devices"))
	devs, err := scanner.Scan()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		fmt.Println("no capture devices found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tNAME\tDRIVER\tCAPTURE\tSTREAMING")
	for _, d := range devs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", d.Path, d.Name, d.Driver, d.Capture, d.Streaming)
	}
	return w.Flush()
}
