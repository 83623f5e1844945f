package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"shaderdbg/frontend/glsl"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

// TokenizeFiles prints the GLSL scanner's token stream for each file in
// turn, the CLI's stand-in for the teacher's scanner.ScanFiles-backed
// Tokenize command.
func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sc := glsl.NewScanner(string(src))
		for {
			tok := sc.Next()
			fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s %q\n", path, tok.Pos.Line, tok.Pos.Column, tok.Kind, tok.Text)
			if tok.Kind == glsl.EOF {
				break
			}
		}
		if err := sc.LastError(); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			return err
		}
	}
	return nil
}
