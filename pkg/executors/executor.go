package executors

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/vizbuck/pkg/importer"
)

type Executor struct {
	logger      *log.Logger
	importer    *importer.Importer
	concurrency int
	out         io.Writer
}

// New returns an Executor that analyzes up to concurrency statements at once
// and prints previews to out.
func New(logger *log.Logger, im *importer.Importer, concurrency int, out io.Writer) *Executor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Executor{
		logger:      logger,
		importer:    im,
		concurrency: concurrency,
		out:         out,
	}
}
