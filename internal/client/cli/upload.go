package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vikinglab/contentvault/internal/client/reconcile"
)

func (a *App) Upload(ctx context.Context, path string) error {

	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Cannot read file:", err.Error())
		return err
	}

	filename := filepath.Base(path)
	printlnFn("Uploading", filename, "...")

	result, err := a.reconciler.Upload(ctx, filename, data)
	if err != nil {
		printlnFn("Upload failed:", err.Error())
		return err
	}

	printResult(result)
	return nil
}

func printResult(r *reconcile.Result) {
	switch r.Outcome {
	case reconcile.OutcomeSuccess:
		printlnFn("Upload succeeded:", r.Filename)
	case reconcile.OutcomeFailed:
		printlnFn("Upload failed:", r.Filename, "-", r.ErrorMessage)
	default:
		printlnFn("Upload outcome unknown:", r.Filename, "- check 'last' later")
	}
}
