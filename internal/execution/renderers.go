package execution

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/aretw0/podium/pkg/domain"
)

// RenderKinds lists the languages CommandRenderer understands.
var RenderKinds = []string{"mermaid", "typst", "latex", "d2"}

// CommandRenderer renders diagrams and formulas with external tools: mmdc, typst, pandoc
// and d2 must be on PATH for their kind.
type CommandRenderer struct {
	// MermaidScale is passed to mmdc -s.
	MermaidScale int
	// TypstPPI is the resolution of typst output.
	TypstPPI int
}

// Render runs the tool for req.Kind in a scratch directory and decodes the png it writes.
func (c CommandRenderer) Render(ctx context.Context, req domain.RenderRequest) (image.Image, error) {
	dir, err := os.MkdirTemp("", "podium-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, "output.png")
	switch req.Kind {
	case "mermaid":
		err = c.mermaid(ctx, dir, output, req)
	case "typst":
		err = c.typst(ctx, dir, output, req.Source)
	case "latex":
		err = c.latex(ctx, dir, output, req.Source)
	case "d2":
		err = c.d2(ctx, dir, output, req)
	default:
		return nil, fmt.Errorf("%w: cannot render %q", domain.ErrUnsupported, req.Kind)
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("renderer produced no image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid rendered image: %w", err)
	}
	return img, nil
}

func (c CommandRenderer) mermaid(ctx context.Context, dir, output string, req domain.RenderRequest) error {
	input := filepath.Join(dir, "input.mmd")
	if err := os.WriteFile(input, []byte(req.Source), 0o600); err != nil {
		return err
	}
	scale := c.MermaidScale
	if req.Scale > 0 {
		scale = req.Scale
	}
	if scale <= 0 {
		scale = 2
	}
	theme := req.Theme
	if theme == "" {
		theme = "default"
	}
	return run(ctx, dir, "mmdc", "-i", input, "-o", output, "-s", strconv.Itoa(scale), "-t", theme, "-b", "transparent")
}

func (c CommandRenderer) typst(ctx context.Context, dir, output, source string) error {
	input := filepath.Join(dir, "input.typ")
	doc := "#set page(width: auto, height: auto, margin: 10pt)\n" + source
	if err := os.WriteFile(input, []byte(doc), 0o600); err != nil {
		return err
	}
	ppi := c.TypstPPI
	if ppi <= 0 {
		ppi = 300
	}
	return run(ctx, dir, "typst", "compile", "--format", "png", "--ppi", strconv.Itoa(ppi), input, output)
}

func (c CommandRenderer) latex(ctx context.Context, dir, output, source string) error {
	cmd := exec.CommandContext(ctx, "pandoc", "--from", "latex", "--to", "typst")
	cmd.Dir = dir
	cmd.Stdin = bytes.NewBufferString(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pandoc failed: %w: %s", err, stderr.String())
	}
	return c.typst(ctx, dir, output, stdout.String())
}

func (c CommandRenderer) d2(ctx context.Context, dir, output string, req domain.RenderRequest) error {
	input := filepath.Join(dir, "input.d2")
	if err := os.WriteFile(input, []byte(req.Source), 0o600); err != nil {
		return err
	}
	return run(ctx, dir, "d2", "--pad", "10", input, output)
}

func run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, stderr.String())
	}
	return nil
}
