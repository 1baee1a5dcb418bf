// Signature digitizer command line
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"signature-digitizer/internal/config"
	"signature-digitizer/internal/core"
	imgio "signature-digitizer/internal/io"
	"signature-digitizer/internal/logging"
	"signature-digitizer/internal/metrics"
	"signature-digitizer/internal/server"
	"signature-digitizer/internal/testimage"
)

const (
	AppName    = "sigdigitize"
	AppVersion = "1.0.0"

	disclaimer = "DISCLAIMER: This tool is for digitizing your own signature. Do not use it to imitate or forge others' signatures."
)

// runtime state shared between Before and the commands
type env struct {
	cfg    config.Config
	logger *logrus.Logger
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{}
	color := core.DefaultProfile

	return &cli.App{
		Name:      AppName,
		Usage:     "Turn photographed signatures into transparent PNGs",
		Version:   AppVersion,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML settings file",
			},
			&cli.StringFlag{
				Name:    "loglevel",
				Aliases: []string{"l"},
				Usage:   "override log level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if lvl := c.String("loglevel"); lvl != "" {
				cfg.Log.Level = lvl
			}
			logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			e.cfg, e.logger = cfg, logger
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "digitize",
				Usage:     "Digitize a signature photograph",
				ArgsUsage: "[-o OUTPUT] [-c COLOR] INPUT",
				Description: "Options must come before INPUT.\nSupported input formats: " +
					strings.Join(imgio.SupportedFormats(), ", "),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output PNG path or s3://bucket/key",
						Value:   "digitized_signature.png",
					},
					&cli.GenericFlag{
						Name:    "color",
						Aliases: []string{"c"},
						Usage:   "ink color (" + strings.Join(core.ProfileNames(), ", ") + "), default from pipeline.default_color",
						Value:   &color,
					},
				},
				Action: e.digitize,
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP service",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address, overrides server.addr",
					},
				},
				Action: e.serve,
			},
			{
				Name:  "generate",
				Usage: "Write a synthetic signature photograph for testing",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "test_signature.png",
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Usage: "paper noise seed",
						Value: testimage.DefaultOptions().Seed,
					},
				},
				Action: e.generate,
			},
		},
	}
}

func (e *env) digitize(c *cli.Context) error {
	out := c.App.Writer
	fmt.Fprintln(out, "--- Signature Digitization Tool ---")
	fmt.Fprintln(out, disclaimer)

	if c.NArg() != 1 {
		return fmt.Errorf("%w: expected exactly one INPUT image after the options, e.g. %s digitize -o out.png -c blue signature.jpg",
			core.ErrInvalidInput, AppName)
	}
	input := c.Args().First()

	target := c.String("output")
	if err := checkOutput(target); err != nil {
		return err
	}

	digitizer, err := core.NewDigitizer(e.cfg.Pipeline, e.logger)
	if err != nil {
		return err
	}

	profile := digitizer.DefaultColor()
	if c.IsSet("color") {
		if p, ok := c.Generic("color").(*core.ColorProfile); ok {
			profile = *p
		}
	}

	loader := imgio.NewImageLoader(e.logger)
	img, err := loader.LoadImage(input)
	defer img.Close()
	if err != nil {
		return err
	}

	result, err := digitizer.Digitize(img, profile)
	defer result.Close()
	if err != nil {
		return err
	}

	fields := logrus.Fields{"input": input, "color": profile}
	for name, value := range metrics.NewEvaluator().CalculateAll(result) {
		fields[name] = value
	}
	e.logger.WithFields(fields).Info("Signature digitized")

	data, err := loader.EncodePNG(result)
	if err != nil {
		return err
	}

	sink := &imgio.Sink{Region: e.cfg.Storage.Region, Logger: e.logger}
	if err := sink.Write(target, data); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved digitized signature to: %s\n", target)

	meta := core.MetadataOf(result)
	fmt.Fprintf(out, "Metadata: { 'ink_color': '%s', 'width_px': %d, 'height_px': %d }\n",
		profile, meta.Width, meta.Height)
	return nil
}

// checkOutput rejects targets that would hold PNG bytes under another
// extension. S3 keys are taken as given.
func checkOutput(target string) error {
	_, isS3, err := imgio.ParseS3Target(target)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if !isS3 && !strings.EqualFold(filepath.Ext(target), ".png") {
		return fmt.Errorf("%w: output must be a .png file: %s", core.ErrInvalidInput, target)
	}
	return nil
}

func (e *env) serve(c *cli.Context) error {
	cfg := e.cfg.Server
	if addr := c.String("addr"); addr != "" {
		cfg.Addr = addr
	}

	digitizer, err := core.NewDigitizer(e.cfg.Pipeline, e.logger)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg, digitizer, e.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func (e *env) generate(c *cli.Context) error {
	target := c.String("output")
	if err := checkOutput(target); err != nil {
		return err
	}

	opts := testimage.DefaultOptions()
	opts.Seed = c.Uint64("seed")

	img, err := testimage.Signature(opts)
	defer img.Close()
	if err != nil {
		return err
	}

	data, err := imgio.NewImageLoader(e.logger).EncodePNG(img)
	if err != nil {
		return err
	}

	sink := &imgio.Sink{Region: e.cfg.Storage.Region, Logger: e.logger}
	if err := sink.Write(target, data); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Created test signature at: %s\n", target)
	return nil
}
