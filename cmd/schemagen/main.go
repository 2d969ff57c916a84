// cmd/schemagen compiles the eSignature Swagger file into the object tables
// embedded in internal/schema.
//
//	schemagen --swagger esignature.rest.swagger-v2.1.json --out internal/schema/esign.json
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/docusign/api-request-builder-open-src/internal/schema"
	"github.com/docusign/api-request-builder-open-src/internal/schemagen"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("schemagen: ")

	app := &cli.App{
		Name:  "schemagen",
		Usage: "compile the Swagger file into request builder object tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "swagger",
				Usage:    "Swagger 2.0 file, JSON or YAML",
				Required: true,
				EnvVars:  []string{"DS_SWAGGER_FILE"},
			},
			&cli.StringFlag{
				Name:  "settings",
				Usage: "CUE settings file; the built-in eSignature settings when empty",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "output path",
				Value: "internal/schema/esign.json",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log every explored object",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cctx *cli.Context) error {
	level := slog.LevelInfo
	if cctx.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	settings, err := loadSettings(cctx.String("settings"))
	if err != nil {
		return err
	}

	f, err := os.Open(cctx.String("swagger"))
	if err != nil {
		return err
	}
	defer f.Close()
	sw, err := schemagen.ParseSwagger(f)
	if err != nil {
		return err
	}

	tables, err := schemagen.Compile(sw, settings, schemagen.WithLogger(logger))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	// The artifact must load before it replaces the embedded one.
	if _, err := schema.Load(bytes.NewReader(out), cctx.String("out")); err != nil {
		return fmt.Errorf("compiled tables do not load: %w", err)
	}
	if err := os.WriteFile(cctx.String("out"), out, 0o644); err != nil {
		return err
	}
	fmt.Printf("Generated %s: %d objects, %d auto containers\n",
		cctx.String("out"), len(tables.Parents), len(tables.AutoContainers))
	return nil
}

func loadSettings(path string) (*schemagen.Settings, error) {
	if path == "" {
		return schemagen.DefaultSettings()
	}
	return schemagen.LoadSettings(path)
}
