package parser

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Statement is a parsed statement ready for classification and review.
type Statement struct {
	Filename string `json:"filename"`
	Format   Format `json:"format"`
	Header   Header `json:"header"`
	Extraction
}

type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger: logger,
	}
}

// ProcessBytes decodes a statement file, finds its header and extracts the
// transaction rows. Header and empty-result failures come back as
// ErrNoHeader and ErrNoTransactions.
func (p *Parser) ProcessBytes(data []byte, filename string) (*Statement, error) {
	format := DetectFormat(data, filename)
	p.logger.Debug("detected file format", "format", format, "filename", filename)

	grid, err := ReadGrid(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	header, err := DetectHeader(grid)
	if err != nil {
		p.logger.Debug("header not found", "filename", filename, "rows", len(grid))
		return nil, err
	}
	p.logger.Debug("detected header", "row", header.Row, "score", header.Score, "columns", header.Columns)

	extraction, err := Extract(grid, header)
	for _, s := range extraction.Skipped {
		p.logger.Debug("skipping row", "row", s.Row, "reason", s.Reason)
	}
	if err != nil {
		return nil, err
	}

	return &Statement{
		Filename:   filename,
		Format:     format,
		Header:     header,
		Extraction: extraction,
	}, nil
}
