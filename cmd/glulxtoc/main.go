// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command glulxtoc drives the disassembler, safety propagator and
// relooper over a Glulx story file and prints what each stage
// discovered. It does not emit C, so this is a smoke-test harness, not a
// compiler front end.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-interpreter/glulxc/disasm"
	"github.com/go-interpreter/glulxc/glulx"
	"github.com/go-interpreter/glulxc/relooper"
	"github.com/go-interpreter/glulxc/safety"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: glulxtoc [options] file.ulx

ex:
 $> glulxtoc -f -r ./file.ulx

options:
`,
		)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

var (
	flagVerbose = flag.Bool("v", false, "enable/disable verbose mode")
	flagFuncs   = flag.Bool("f", false, "list disassembled functions and their safety label")
	flagBlocks  = flag.Bool("b", false, "print each function's basic blocks")
	flagReloop  = flag.Bool("r", false, "print the shaped block tree for every unsafe function")
)

func main() {
	log.SetPrefix("glulxtoc: ")
	log.SetFlags(0)

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
	}
	if !*flagFuncs && !*flagBlocks && !*flagReloop {
		flag.Usage()
		log.Fatal("at least one of -f, -b or -r must be given")
	}

	glulx.PrintDebugInfo = *flagVerbose
	disasm.PrintDebugInfo = *flagVerbose
	relooper.PrintDebugInfo = *flagVerbose

	if err := process(flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}

func process(fname string) error {
	img, err := glulx.LoadImageFile(fname)
	if err != nil {
		return fmt.Errorf("loading %s: %w", fname, err)
	}
	defer img.Close()

	res, err := disasm.Disassemble(img)
	if err != nil {
		return fmt.Errorf("disassembling %s: %w", fname, err)
	}

	nodes := make(map[uint32]safety.Node, len(res.Functions))
	for addr, fn := range res.Functions {
		nodes[addr] = fn
	}
	safety.Propagate(res.CallGraph, nodes)

	addrs := sortedAddrs(res.Functions)

	if *flagFuncs {
		printFunctions(img, res, addrs)
	}
	if *flagBlocks {
		printBlocks(img, res, addrs)
	}
	if *flagReloop {
		printReloop(img, res, addrs)
	}
	return nil
}

func sortedAddrs(fns map[uint32]*glulx.Function) []uint32 {
	addrs := make([]uint32, 0, len(fns))
	for addr := range fns {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

func printFunctions(img *glulx.Image, res *disasm.Result, addrs []uint32) {
	fmt.Printf("functions: %d\n\n", len(addrs))
	for _, addr := range addrs {
		fn := res.Functions[addr]
		fmt.Printf(" - %-24s locals=%-4d blocks=%-4d calls=%-4d safety=%v\n",
			img.FunctionName(addr), fn.Locals, len(fn.BlockOrder),
			len(res.CallGraph.Callees(addr)), fn.Label(),
		)
	}
}

func printBlocks(img *glulx.Image, res *disasm.Result, addrs []uint32) {
	for _, addr := range addrs {
		fn := res.Functions[addr]
		fmt.Printf("\nfunc %s (safety=%v):\n", img.FunctionName(addr), fn.Label())
		for _, start := range fn.BlockOrder {
			b := fn.Blocks[start]
			fmt.Printf("  block %#06x: %d instructions, ends %#06x\n",
				start, len(b.Instructions), b.End().Addr,
			)
		}
	}
}

func printReloop(img *glulx.Image, res *disasm.Result, addrs []uint32) {
	for _, addr := range addrs {
		fn := res.Functions[addr]
		if fn.Label() != glulx.Unsafe {
			continue
		}
		blocks, root := relooper.BlocksFromFunction(fn)
		shape := relooper.Reloop(blocks, root)
		fmt.Printf("\nfunc %s (unsafe, %d blocks):\n", img.FunctionName(addr), len(blocks))
		printShape(shape, 1)
	}
}

func printShape(b *relooper.ShapedBlock, depth int) {
	indent := func() string {
		s := ""
		for i := 0; i < depth; i++ {
			s += "  "
		}
		return s
	}
	switch {
	case b == nil:
		return
	case b.Simple != nil:
		fmt.Printf("%ssimple %#x branches=%s\n", indent(), b.Simple.Label, formatBranches(b.Simple.Branches))
		printShape(b.Simple.Immediate, depth+1)
		printShape(b.Simple.Next, depth)
	case b.Loop != nil:
		fmt.Printf("%sloop id=%d\n", indent(), b.Loop.ID)
		printShape(b.Loop.Inner, depth+1)
		printShape(b.Loop.Next, depth)
	case b.Multiple != nil:
		fmt.Printf("%smultiple\n", indent())
		for _, arm := range b.Multiple.Handled {
			fmt.Printf("%s  arm %v break=%v\n", indent(), arm.Labels, arm.BreakAfter)
			printShape(arm.Inner, depth+2)
		}
		printShape(b.Multiple.Next, depth)
	}
}

func formatBranches(branches map[relooper.Label]relooper.BranchMode) string {
	if len(branches) == 0 {
		return "{}"
	}
	keys := make([]relooper.Label, 0, len(branches))
	for l := range branches {
		keys = append(keys, l)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	s := "{"
	for i, l := range keys {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%#x:%v", l, branches[l].Kind)
	}
	return s + "}"
}
