// Package bootstrap turns a Config into the logger, store and classifier the
// binaries share.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/vizbuck/pkg/classify"
	"github.com/yurifrl/vizbuck/pkg/config"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/store"
	"github.com/yurifrl/vizbuck/pkg/store/filestore"
	"github.com/yurifrl/vizbuck/pkg/store/gcsstore"
	"github.com/yurifrl/vizbuck/pkg/store/mongostore"
)

func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportCaller:    lvl == log.DebugLevel,
		ReportTimestamp: true,
		Prefix:          "vizbuck",
		Level:           lvl,
	}), nil
}

// OpenStore connects the configured backend. The returned close func is
// never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemory(models.Ledger{}), noop, nil
	case config.StoreFile:
		st, err := filestore.New(cfg.DataFile)
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil
	case config.StoreMongo:
		st, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.UserID)
		if err != nil {
			return nil, noop, err
		}
		return st, func() error { return st.Close(context.Background()) }, nil
	case config.StoreGCS:
		st, err := gcsstore.New(ctx, cfg.GCSBucket, cfg.GCSObject)
		if err != nil {
			return nil, noop, err
		}
		return st, st.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// NewClassifier returns nil for the none backend. Remote classifiers sit
// behind a circuit breaker.
func NewClassifier(ctx context.Context, cfg *config.Config) (classify.Classifier, error) {
	switch cfg.Classifier {
	case config.ClassifierNone:
		return nil, nil
	case config.ClassifierRules:
		if cfg.RulesFile == "" {
			return classify.NewRules(nil), nil
		}
		path, err := expandHome(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules, err := classify.LoadRules(path)
		if err != nil {
			return nil, err
		}
		return rules, nil
	case config.ClassifierGemini:
		g, err := classify.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return classify.NewBreaker("gemini", g), nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier)
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
