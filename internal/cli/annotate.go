package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ironsheep/slide-qa/internal/imaging"
	"github.com/ironsheep/slide-qa/internal/shapemap"
)

func runAnnotate(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		mapPath := flags.String("map", "", "Shape map JSON written by lint --export-map")
		slide := flags.Int("slide", -1, "0-based slide index")
		out := flags.String("out", "", "Path for the marked PNG")
		color := flags.String("color", "", "Single box colour as #RRGGBB (default: one colour per mark)")
		configPath := flags.String("config", "", "Path to slide-qa.yml")
		pos, code := parseCommand(cmd, flags, args, stdout, stderr, 1)
		if code >= 0 {
			return code
		}
		if *mapPath == "" || *out == "" || *slide < 0 {
			fmt.Fprintln(stderr, "--map, --slide and --out are required")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if _, code := loadConfig(*configPath, stderr); code >= 0 {
			return code
		}

		m, err := shapemap.Read(*mapPath)
		if err != nil {
			fmt.Fprintf(stderr, "Annotation failed: %v\n", err)
			return ExitError
		}

		res, err := imaging.AnnotateSlide(imaging.NewImageCache(), pos[0], m, *slide, *out, imaging.AnnotateOptions{Color: *color})
		if err != nil {
			if errors.Is(err, imaging.ErrNoShapes) {
				fmt.Fprintf(stderr, "Annotation failed: %v (the image and shape map may come from different builds)\n", err)
			} else {
				fmt.Fprintf(stderr, "Annotation failed: %v\n", err)
			}
			return ExitError
		}

		fmt.Fprintf(stdout, "Wrote %s (%dx%d, %d marks)\n", res.Path, res.Width, res.Height, res.Marks)
		return ExitOK
	}
}
