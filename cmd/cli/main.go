package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const usage = "expected 'export' or 'import' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	// stdout carries the export, so logs go to stderr
	log := logger.NewWithWriter(cfg.LogLevel, cfg.AppEnv, os.Stderr)

	ctx := context.Background()
	repo, err := sqldb.NewRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer repo.Close()

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		n, err := exportURLs(ctx, repo, os.Stdout)
		if err != nil {
			log.Fatal().Err(err).Msg("export failed")
		}
		log.Info().Int("count", n).Msg("exported short urls")
	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		file, err := os.Open(*importFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open file")
		}
		defer file.Close()

		imported, skipped, err := importURLs(ctx, repo, file, log)
		if err != nil {
			log.Fatal().Err(err).Msg("import failed")
		}
		log.Info().Int("imported", imported).Int("skipped", skipped).Msg("import finished")
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

// exportURLs writes every short URL, deleted ones included, as a JSON array.
func exportURLs(ctx context.Context, repo ports.URLRepository, w io.Writer) (int, error) {
	urls, err := repo.DumpURLs(ctx)
	if err != nil {
		return 0, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(urls); err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	return len(urls), nil
}

// importURLs inserts the rows read from r. Active rows whose short code is
// already in use are skipped.
func importURLs(ctx context.Context, repo ports.URLRepository, r io.Reader, log zerolog.Logger) (imported, skipped int, err error) {
	var urls []domain.ShortURL
	if err := json.NewDecoder(r).Decode(&urls); err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}

	for i := range urls {
		u := &urls[i]
		if !u.IsDeleted() {
			exists, err := repo.ShortCodeExists(ctx, u.ShortCode)
			if err != nil {
				return imported, skipped, err
			}
			if exists {
				log.Warn().Str("short_code", u.ShortCode).Msg("skipping existing code")
				skipped++
				continue
			}
		}

		if err := repo.ImportURL(ctx, u); err != nil {
			if errors.Is(err, domain.ErrShortCodeTaken) || errors.Is(err, domain.ErrConflict) {
				log.Warn().Str("short_code", u.ShortCode).Err(err).Msg("skipping conflicting row")
				skipped++
				continue
			}
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}
