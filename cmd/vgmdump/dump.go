package main

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/valerio/go-vgmplay/vgmplay/disasm"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

type dumpOptions struct {
	header bool
	start  int
	count  int
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// dump writes the requested sections of file to w.
func dump(w io.Writer, file *vgm.File, opts dumpOptions) error {
	if opts.header {
		if file.Header != nil {
			fmt.Fprintf(w, "VGM %s, %s, data at 0x%X\n", file.Header.Version(), file.Header.Duration(), file.Header.DataOffset)
			dumpConfig.Fdump(w, file.Header)
		} else {
			fmt.Fprintln(w, "raw command stream (no header)")
		}
		if file.Tags != nil {
			dumpConfig.Fdump(w, file.Tags)
		}
		fmt.Fprintln(w)
	}

	if opts.start < 0 || opts.start > file.Commands.Len() {
		return fmt.Errorf("start offset 0x%X outside stream of 0x%X bytes", opts.start, file.Commands.Len())
	}
	count := opts.count
	if count <= 0 {
		count = file.Commands.Len()
	}

	unsupported := 0
	for _, line := range disasm.DisassembleRange(file.Commands, opts.start, count) {
		fmt.Fprintln(w, disasm.FormatLine(line, false))
		if op := line.Bytes; len(op) > 0 && !vgm.IsSupported(op[0]) {
			unsupported++
		}
	}
	if unsupported > 0 {
		fmt.Fprintf(w, "; %d commands the player does not execute\n", unsupported)
	}
	return nil
}
