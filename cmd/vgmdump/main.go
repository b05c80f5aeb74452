package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

func main() {
	app := cli.NewApp()
	app.Name = "vgmdump"
	app.Description = "Prints the header, tags and command listing of a VGM file"
	app.Usage = "vgmdump [options] <VGM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "header",
			Usage: "Dump the parsed header and GD3 tags",
		},
		cli.IntFlag{
			Name:  "start",
			Usage: "Command stream offset to start the listing at",
		},
		cli.IntFlag{
			Name:  "count",
			Usage: "Number of commands to list (0 = all)",
		},
	}
	app.Action = runDump

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error dumping file", "error", err)
		os.Exit(1)
	}
}

func runDump(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		cli.ShowAppHelp(c)
		return errors.New("no VGM file provided")
	}

	file, err := vgm.Load(path)
	if err != nil {
		return err
	}
	return dump(os.Stdout, file, dumpOptions{
		header: c.Bool("header"),
		start:  c.Int("start"),
		count:  c.Int("count"),
	})
}
