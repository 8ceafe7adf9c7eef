package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/vizbuck/pkg/executors"
	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/parser"
	"github.com/yurifrl/vizbuck/pkg/service"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <input_path>",
	Short: "Analyze statements and optionally commit them to an account",
	Long: `Analyze a statement file, every statement in a directory, or a glob.
Without --commit only the review is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		flags := cmd.Flags()
		rawMethod, _ := flags.GetString("payment-method")
		commit, _ := flags.GetBool("commit")

		var method models.PaymentMethod
		if rawMethod != "" {
			m, ok := models.ParsePaymentMethod(rawMethod)
			if !ok {
				return fmt.Errorf("unknown payment method %q", rawMethod)
			}
			method = m
		}

		target, err := importTarget(cmd)
		if err != nil {
			return err
		}
		if commit {
			if err := target.Validate(); err != nil {
				return err
			}
		}

		paths, err := service.Collect(args[0])
		if err != nil {
			return err
		}
		processor := service.NewProcessor(e.logger, e.importer)
		analyses, err := processor.Process(cmd.Context(), paths, method)
		if err != nil {
			return err
		}

		for _, a := range analyses {
			fmt.Println(a.Path)
			if a.Session.Classification.Fallback {
				fmt.Printf("  classification skipped: %s\n", a.Session.Classification.Reason)
			}
			executors.RenderMetrics(os.Stdout, a.Session.Metrics)
			for _, t := range a.Session.Transactions {
				executors.RenderReviewLine(os.Stdout, t)
			}
			fmt.Println()
		}

		if !commit {
			fmt.Println("Dry run: pass --commit with --asset-id or --new-asset-name to import.")
			return nil
		}
		results, err := processor.CommitAll(cmd.Context(), analyses, target)
		for i, r := range results {
			fmt.Printf("  - %s -> account %s : %d transactions, balance %.2f\n",
				filepath.Base(analyses[i].Path), r.AssetID, r.Imported, r.ClosingBalance)
		}
		return err
	}),
}

func importTarget(cmd *cobra.Command) (importer.Target, error) {
	flags := cmd.Flags()
	assetID, _ := flags.GetString("asset-id")
	name, _ := flags.GetString("new-asset-name")
	rawType, _ := flags.GetString("asset-type")

	if assetID != "" && name != "" {
		return importer.Target{}, errors.New("use either --asset-id or --new-asset-name, not both")
	}
	t := importer.Target{AssetID: assetID}
	if name != "" {
		t = importer.Target{New: true, NewAssetName: name}
	}
	if rawType != "" {
		at, ok := models.ParseAssetType(rawType)
		if !ok {
			return importer.Target{}, fmt.Errorf("unknown asset type %q", rawType)
		}
		t.AssetType = at
	}
	return t, nil
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Dump the detected header and extracted rows of a statement",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(_ *cobra.Command, args []string, e *env) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		st, err := parser.New(e.logger).ProcessBytes(data, filepath.Base(args[0]))
		if err != nil {
			return err
		}
		_, err = pp.Println(st)
		return err
	}),
}

func init() {
	f := importCmd.Flags()
	f.String("payment-method", "", "Payment method for every row: UPI, Card, Net Banking, Cash, Other")
	f.String("asset-id", "", "Existing account to import into")
	f.String("new-asset-name", "", "Create a new account with this name")
	f.String("asset-type", "", "Type of the new account (default bank)")
	f.Bool("commit", false, "Write the import to the ledger")
}
