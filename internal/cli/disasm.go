package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"shaderdbg/compiler"
	"shaderdbg/frontend/glsl"
)

func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := disasmFile(stdio, path); err != nil {
			return err
		}
	}
	return nil
}

func disasmFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	comp := compiler.NewCompiler(glsl.Tokenize)
	fe := glsl.New()
	img, err := comp.SetSource(compiler.StageFragment, fe, string(src))
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}
	for i := range img.Functions {
		if err := img.Disassemble(stdio.Stdout, i); err != nil {
			return err
		}
	}
	return nil
}
