package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DMarby/instafilter/internal/codec"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/pipeline"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "instafilter-apply",
		Usage:     "Apply a filter to a local image",
		ArgsUsage: "<source>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Filter to apply, see --list",
				Value:   filter.Default().ID,
			},
			&cli.Float64Flag{
				Name:  filter.Intensity.String(),
				Usage: "Intensity between 0 and 1, for filters that accept it",
			},
			&cli.Float64Flag{
				Name:  filter.Radius.String(),
				Usage: "Radius between 0 and 1, for filters that accept it",
			},
			&cli.Float64Flag{
				Name:  filter.Scale.String(),
				Usage: "Scale between 0 and 1, for filters that accept it",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (.jpg or .png), if not supplied one will be generated from the source and filter",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List the available filters and the parameters they accept",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.Bool("list") {
		listFilters(c)
		return nil
	}

	if c.NArg() != 1 {
		return cli.ShowAppHelp(c)
	}

	source := c.Args().First()

	state, err := buildState(c)
	if err != nil {
		return err
	}

	output := c.String("output")
	if output == "" {
		output = defaultOutput(source, state.Filter())
	}

	format, err := codec.FormatFromExtension(filepath.Ext(output))
	if err != nil {
		return fmt.Errorf("%s: %w", output, err)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}

	img, err := codec.Decode(data)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := pipeline.Apply(img, state)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	buf, err := codec.Encode(result, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, buf, 0644); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s: applied %s to %dx%d pixels in %s, wrote %s\n",
		output,
		state.Filter().Name,
		result.Bounds().Dx(),
		result.Bounds().Dy(),
		elapsed.Round(time.Millisecond),
		humanize.Bytes(uint64(len(buf))),
	)

	return nil
}

// buildState selects the filter and sets the parameters given on the command line
// Flags for parameters the filter doesn't accept are an error rather than being ignored
func buildState(c *cli.Context) (*filter.State, error) {
	d, ok := filter.Lookup(c.String("filter"))
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %q, see --list", filter.ErrInvalidParameter, c.String("filter"))
	}

	state := filter.NewState(d)
	for _, k := range filter.Kinds {
		if !c.IsSet(k.String()) {
			continue
		}

		if err := state.SetParameter(k, c.Float64(k.String())); err != nil {
			return nil, err
		}
	}

	return state, nil
}

func defaultOutput(source string, d filter.Descriptor) string {
	ext := filepath.Ext(source)
	if _, err := codec.FormatFromExtension(ext); err != nil || ext == "" {
		ext = codec.PNG.Extension()
	}

	return fmt.Sprintf("%s-%s%s", strings.TrimSuffix(source, filepath.Ext(source)), strings.ToLower(d.ID), ext)
}

func listFilters(c *cli.Context) {
	for _, d := range filter.List() {
		parameters := "none"
		if d.Accepts.Len() > 0 {
			parameters = strings.Join(d.Accepts.Strings(), ", ")
		}

		fmt.Fprintf(c.App.Writer, "%-14s %-15s %s\n", d.ID, d.Name, parameters)
	}
}
