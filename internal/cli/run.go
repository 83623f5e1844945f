package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"shaderdbg/compiler"
	"shaderdbg/debugger"
	"shaderdbg/frontend/glsl"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := runFile(stdio, path, c.Entry); err != nil {
			return err
		}
	}
	return nil
}

func runFile(stdio mainer.Stdio, path, entry string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	d := debugger.New(glsl.Tokenize)
	if err := d.SetSource(compiler.StageFragment, glsl.New(), string(src), entry, nil, nil); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}
	result, err := d.Execute()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}
	fmt.Fprintf(stdio.Stdout, "%s: %s\n", path, result)
	return nil
}
