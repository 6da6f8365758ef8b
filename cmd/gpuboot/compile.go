// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/shader"
)

// compile translates a WGSL file to SPIR-V and reports its entry points.
func compile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default: input with .spv extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: gpuboot compile [-o out.spv] shader.wgsl")
	}
	in := fs.Arg(0)

	src, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	spirv, err := shader.CompileWGSL(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(in, ".wgsl") + ".spv"
	}
	if err := os.WriteFile(dst, spirv, 0o644); err != nil {
		return err
	}

	words, err := shader.Words(spirv)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d bytes\n", dst, len(spirv))
	for _, stage := range []backend.ShaderStage{backend.StageVertex, backend.StageFragment} {
		iface, err := shader.ReflectSPIRV(words, stage, "")
		if err != nil {
			continue
		}
		fmt.Printf("  %s %q", stage, iface.EntryPoint)
		for _, input := range iface.Inputs {
			fmt.Printf(" %v", input)
		}
		fmt.Println()
	}
	return nil
}
