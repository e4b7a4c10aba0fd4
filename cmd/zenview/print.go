package main

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
	"github.com/soypat/zengl"
)

// formatterFor returns the terminal formatter matching the color profile.
func formatterFor(p termenv.Profile) chroma.Formatter {
	switch p {
	case termenv.TrueColor:
		return formatters.TTY16m
	case termenv.ANSI256:
		return formatters.TTY256
	case termenv.ANSI:
		return formatters.TTY16
	}
	return formatters.NoOp
}

// printSources writes the vertex and fragment sources of job highlighted as GLSL.
func printSources(w io.Writer, job *zengl.Job, f chroma.Formatter, style string) error {
	lexer := lexers.Get("glsl")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	st := styles.Get(style)
	for _, stage := range []struct {
		name string
		src  string
	}{
		{name: "vertex", src: job.VertexSource},
		{name: "fragment", src: job.FragmentSource},
	} {
		_, err := fmt.Fprintf(w, "// %s shader\n", stage.name)
		if err != nil {
			return err
		}
		it, err := lexer.Tokenise(nil, stage.src)
		if err != nil {
			return err
		}
		err = f.Format(w, st, it)
		if err != nil {
			return err
		}
	}
	return nil
}
