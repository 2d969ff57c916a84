// cmd/reqbuilder builds eSignature envelope requests from block diagrams and
// generates SDK example programs for them.
//
//	reqbuilder build diagram.json > request.json
//	reqbuilder generate --language Python request.json
//	reqbuilder serve --port 8080
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/docusign/api-request-builder-open-src/internal/assembler"
	"github.com/docusign/api-request-builder-open-src/internal/codegen"
	"github.com/docusign/api-request-builder-open-src/internal/config"
	"github.com/docusign/api-request-builder-open-src/internal/diagram"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
	"github.com/docusign/api-request-builder-open-src/internal/server"
	"github.com/docusign/api-request-builder-open-src/internal/session"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("reqbuilder: ")
	if err := run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	app := &cli.App{
		Name:  "reqbuilder",
		Usage: "assemble eSignature requests and generate SDK examples",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "schema",
				Usage:   "compiled schema tables; the embedded tables when empty",
				EnvVars: []string{"SCHEMA_TABLES"},
			},
			&cli.StringFlag{
				Name:    "account-id",
				Usage:   "account id written into generated programs",
				EnvVars: []string{"DS_ACCOUNT_ID"},
			},
			&cli.StringFlag{
				Name:    "access-token",
				Usage:   "access token written into generated programs",
				EnvVars: []string{"DS_ACCESS_TOKEN"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"DEBUG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "replay a diagram and print the request",
				ArgsUsage: "[diagram.json|-]",
				Action:    build,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "language",
						Usage: "print the program for this language instead of the request",
					},
				},
			},
			{
				Name:      "generate",
				Usage:     "generate a program from a request document",
				ArgsUsage: "[request.json|-]",
				Action:    generate,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "language",
						Aliases:  []string{"l"},
						Usage:    "target language, see 'languages'",
						Required: true,
					},
				},
			},
			{
				Name:   "languages",
				Usage:  "list the generation targets",
				Action: languages,
			},
			{
				Name:   "serve",
				Usage:  "run the HTTP and WebSocket server",
				Action: serve,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Usage:   "port to listen on",
						EnvVars: []string{"PORT"},
					},
					&cli.DurationFlag{
						Name:  "cleanup-interval",
						Usage: "how often stale sessions are removed",
						Value: time.Minute,
					},
				},
			},
		},
	}
	return app.Run(args)
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(cctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cctx.IsSet("schema") {
		cfg.SchemaTables = cctx.String("schema")
	}
	if cctx.IsSet("account-id") {
		cfg.AccountID = cctx.String("account-id")
	}
	if cctx.IsSet("access-token") {
		cfg.AccessToken = cctx.String("access-token")
	}
	if cctx.IsSet("port") {
		cfg.Port = cctx.Int("port")
	}
	return cfg, nil
}

func newLogger(cctx *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if cctx.Bool("debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type toolchain struct {
	cfg    *config.Config
	tables *schema.Tables
	gen    *codegen.Generator
	logger *slog.Logger
}

func setup(cctx *cli.Context) (*toolchain, error) {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return nil, err
	}
	tables, err := cfg.Tables()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cctx)
	gen := codegen.New(tables, codegen.DefaultRegistry(),
		codegen.WithAccount(cfg.AccountID, cfg.AccessToken),
		codegen.WithLogger(logger))
	return &toolchain{cfg: cfg, tables: tables, gen: gen, logger: logger}, nil
}

func openInput(cctx *cli.Context) (io.ReadCloser, error) {
	path := cctx.Args().First()
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func build(cctx *cli.Context) error {
	tc, err := setup(cctx)
	if err != nil {
		return err
	}
	in, err := openInput(cctx)
	if err != nil {
		return err
	}
	defer in.Close()

	d, err := diagram.Decode(in)
	if err != nil {
		return err
	}
	req, err := diagram.Build(assembler.New(tc.tables, assembler.WithLogger(tc.logger)), d)
	if err != nil {
		return err
	}

	if lang := cctx.String("language"); lang != "" {
		return printProgram(tc.gen, req, lang)
	}
	out, err := document.MarshalIndent(req, "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func generate(cctx *cli.Context) error {
	tc, err := setup(cctx)
	if err != nil {
		return err
	}
	in, err := openInput(cctx)
	if err != nil {
		return err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	req, err := document.DecodeRequest(data)
	if err != nil {
		return err
	}
	return printProgram(tc.gen, req, cctx.String("language"))
}

func printProgram(gen *codegen.Generator, req document.Request, language string) error {
	if _, ok := gen.Languages().Get(language); !ok {
		return cli.Exit(codegen.Unsupported(gen.Languages().DisplayName(language)), 2)
	}
	code, err := gen.Generate(req, language)
	if err != nil {
		return err
	}
	fmt.Print(code)
	return nil
}

func languages(cctx *cli.Context) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME")
	for _, l := range codegen.DefaultRegistry().List() {
		fmt.Fprintf(w, "%s\t%s\n", l.Name, l.DisplayName)
	}
	return w.Flush()
}

func serve(cctx *cli.Context) error {
	tc, err := setup(cctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewManager(tc.tables, tc.cfg.SessionMaxAge, tc.cfg.SessionIdleTimeout,
		session.WithLogger(tc.logger))
	go sessions.Run(ctx, cctx.Duration("cleanup-interval"))

	return server.Run(ctx, server.Config{
		Port:      tc.cfg.Port,
		Tables:    tc.tables,
		Generator: tc.gen,
		Sessions:  sessions,
		CacheSize: tc.cfg.CacheSize,
		Logger:    tc.logger,
	})
}
