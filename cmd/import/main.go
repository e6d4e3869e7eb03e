// Command import loads attribute workbooks exported from the legacy
// catalog and publishes them to the storefront via the GraphQL admin API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/attrimport"
	"github.com/draheim/zoho-sync/internal/infrastructure/config"
	"github.com/draheim/zoho-sync/internal/infrastructure/logger"
	"github.com/draheim/zoho-sync/internal/infrastructure/storefront"
)

func main() {
	var (
		attributesPath string
		filtersPath    string
		optionsPath    string
		fixturePath    string
		workers        int
		logLevel       string
	)
	flag.StringVar(&attributesPath, "attributes", "", "Workbook of rich-text attributes")
	flag.StringVar(&filtersPath, "filters", "", "Workbook of boolean filter attributes")
	flag.StringVar(&optionsPath, "options", "", "Workbook of dropdown option attributes")
	flag.StringVar(&fixturePath, "fixture", "", "Write parsed attributes to this JSON file before publishing")
	flag.IntVar(&workers, "workers", 4, "Concurrent workbook parsers")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var workbooks []attrimport.Workbook
	if attributesPath != "" {
		workbooks = append(workbooks, attrimport.Workbook{Path: attributesPath, InputType: attrimport.InputTypeRichText})
	}
	if filtersPath != "" {
		workbooks = append(workbooks, attrimport.Workbook{Path: filtersPath, InputType: attrimport.InputTypeBoolean})
	}
	if optionsPath != "" {
		workbooks = append(workbooks, attrimport.Workbook{Path: optionsPath, InputType: attrimport.InputTypeDropdown})
	}
	if len(workbooks) == 0 {
		fmt.Fprintln(os.Stderr, "At least one of -attributes, -filters, -options is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Storefront.GraphQLURL == "" {
		log.Fatal("storefront.graphql_url is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher := storefront.NewClient(
		cfg.Storefront.GraphQLURL,
		cfg.Storefront.Email,
		cfg.Storefront.Password,
		log,
	)

	report, err := attrimport.NewImporter(publisher, log, workers).Run(ctx, workbooks, fixturePath)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}

	log.Info("Import complete",
		zap.Int("parsed", report.Parsed),
		zap.Int("published", report.Published),
	)
}
