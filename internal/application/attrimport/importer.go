package attrimport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Workbook pairs an exported spreadsheet with the attribute input type
// its entries are created as.
type Workbook struct {
	Path      string
	InputType string
}

// Report summarises one import run.
type Report struct {
	Parsed    int `json:"parsed"`
	Published int `json:"published"`
}

// Importer parses the workbooks on a bounded worker pool and publishes
// all attributes in one bulk mutation.
type Importer struct {
	publisher Publisher
	logger    *zap.Logger
	workers   int
}

func NewImporter(publisher Publisher, logger *zap.Logger, workers int) *Importer {
	if workers <= 0 {
		workers = 4
	}
	return &Importer{publisher: publisher, logger: logger, workers: workers}
}

// Run imports every workbook. Attributes keep workbook order. A non-empty
// fixturePath also writes the parsed attributes as a JSON fixture before
// publishing, so a rejected batch can be replayed.
func (imp *Importer) Run(ctx context.Context, workbooks []Workbook, fixturePath string) (*Report, error) {
	parsed := make([][]Attribute, len(workbooks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.workers)
	for i, wb := range workbooks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			attrs, err := ParseWorkbook(wb.Path, wb.InputType)
			if err != nil {
				return err
			}
			imp.logger.Info("Workbook parsed",
				zap.String("path", wb.Path),
				zap.String("input_type", wb.InputType),
				zap.Int("attributes", len(attrs)),
			)
			parsed[i] = attrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var attrs []Attribute
	for _, batch := range parsed {
		attrs = append(attrs, batch...)
	}

	if fixturePath != "" {
		if err := writeFixture(fixturePath, attrs); err != nil {
			return nil, err
		}
	}

	published, err := imp.publisher.PublishAttributes(ctx, attrs, ErrorPolicyRejectEverything)
	if err != nil {
		return nil, err
	}

	return &Report{Parsed: len(attrs), Published: published}, nil
}

func writeFixture(path string, attrs []Attribute) error {
	data, err := json.MarshalIndent(attrs, "", "    ")
	if err != nil {
		return fmt.Errorf("attrimport: encode fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("attrimport: write fixture: %w", err)
	}
	return nil
}
