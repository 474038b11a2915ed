package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/RealSpaceofAce/framelord-sub002/internal"
	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	pkgconfig "github.com/RealSpaceofAce/framelord-sub002/pkg/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// quietLogs keeps one-shot commands from mixing log lines into their output.
func quietLogs(cmd *cli.Command) io.Writer {
	if cmd.Bool("verbose") {
		return os.Stderr
	}
	return io.Discard
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func purge(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	days := -1
	if cmd.IsSet("days") {
		days = int(cmd.Int("days"))
	}
	n, err := internal.Purge(ctx, days, internal.WithConfig(cfg), internal.WithLogOutput(quietLogs(cmd)))
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	fmt.Fprintf(os.Stdout, "purged %d notes\n", n)
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := io.Writer(os.Stdout)
	if path := cmd.String("output"); path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return internal.Export(ctx, out, internal.WithConfig(cfg), internal.WithLogOutput(quietLogs(cmd)))
}

func importNotes(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("import: missing file argument")
	}
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("import: read %s: %w", path, err)
	}

	opts := models.ImportOptions{
		Overwrite: cmd.Bool("overwrite"),
		FreshIDs:  cmd.Bool("fresh-ids"),
	}
	res, err := internal.Import(ctx, data, opts, internal.WithConfig(cfg), internal.WithLogOutput(quietLogs(cmd)))
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(os.Stdout, "imported %d (overwritten %d, skipped %d)\n", res.Imported, res.Overwritten, res.Skipped)
	return nil
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{Name: "verbose", Usage: "Write logs to stderr"}
}

func main() {
	cmd := &cli.Command{
		Name:   "notegraph",
		Usage:  "Note graph with wiki-style references, hashtag topics, and a trash lifecycle",
		Action: serve,
		Flags:  []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Flags:  []cli.Flag{configFlag()},
				Action: mcp,
			},
			{
				Name:  "purge",
				Usage: "Permanently remove trashed notes past retention",
				Flags: []cli.Flag{
					configFlag(),
					verboseFlag(),
					&cli.IntFlag{Name: "days", Usage: "Age threshold in days (default: trash.purge_after_days)"},
				},
				Action: purge,
			},
			{
				Name:  "export",
				Usage: "Write every note as an export document",
				Flags: []cli.Flag{
					configFlag(),
					verboseFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (default: stdout)"},
				},
				Action: export,
			},
			{
				Name:      "import",
				Usage:     "Merge an export document into the store",
				ArgsUsage: "<file|->",
				Flags: []cli.Flag{
					configFlag(),
					verboseFlag(),
					&cli.BoolFlag{Name: "overwrite", Usage: "Replace notes with matching ids"},
					&cli.BoolFlag{Name: "fresh-ids", Usage: "Assign new ids to every imported note"},
				},
				Action: importNotes,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
