package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/models"
)

type Plan struct {
	Statements []Statement `yaml:"statements"`

	dir string
}

// Statement describes one file to import and where it lands.
type Statement struct {
	File           string               `yaml:"file"`
	AssetID        string               `yaml:"asset_id"`
	NewAssetName   string               `yaml:"new_asset_name"`
	AssetType      models.AssetType     `yaml:"asset_type"`
	PaymentMethod  models.PaymentMethod `yaml:"payment_method"`
	OpeningBalance *float64             `yaml:"opening_balance"`
	Overrides      map[string]float64   `yaml:"overrides"`
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("plan has no statements")
	}
	for i, st := range p.Statements {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	p.dir = filepath.Dir(path)
	return &p, nil
}

func (s Statement) validate() error {
	if s.File == "" {
		return fmt.Errorf("file is required")
	}
	if err := s.Target().Validate(); err != nil {
		return err
	}
	if s.PaymentMethod != "" {
		if _, ok := models.ParsePaymentMethod(string(s.PaymentMethod)); !ok {
			return fmt.Errorf("unknown payment method %q", s.PaymentMethod)
		}
	}
	return nil
}

// Target maps the statement's account fields to an import target. A new
// asset name takes effect only when no asset id is given.
func (s Statement) Target() importer.Target {
	if s.AssetID != "" {
		return importer.Target{AssetID: s.AssetID}
	}
	return importer.Target{New: true, NewAssetName: s.NewAssetName, AssetType: s.AssetType}
}

// File resolves a statement path: ~/ expands to the home directory and
// relative paths are taken from the plan file's directory.
func (p *Plan) File(s Statement) string {
	path := s.File
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) && p.dir != "" {
		path = filepath.Join(p.dir, path)
	}
	return path
}

func (p *Plan) Print(w io.Writer) {
	for i, st := range p.Statements {
		target := st.AssetID
		if target == "" {
			target = "new:" + st.NewAssetName
		}
		fmt.Fprintf(w, "[%d] file=%s target=%s method=%s\n", i+1, st.File, target, st.PaymentMethod)
	}
}
