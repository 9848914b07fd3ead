package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vikinglab/contentvault/internal/client/reconcile"
)

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name   string
		result *reconcile.Result
		want   string
	}{
		{
			name:   "success",
			result: &reconcile.Result{Outcome: reconcile.OutcomeSuccess, Filename: "report.txt"},
			want:   "Upload succeeded: report.txt",
		},
		{
			name: "failure with reason",
			result: &reconcile.Result{
				Outcome:      reconcile.OutcomeFailed,
				Filename:     "empty.txt",
				ErrorMessage: "File is empty.",
			},
			want: "Upload failed: empty.txt - File is empty.",
		},
		{
			name:   "unknown",
			result: &reconcile.Result{Outcome: reconcile.OutcomeUnknown, Filename: "report.txt"},
			want:   "Upload outcome unknown: report.txt - check 'last' later",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines := capturePrintln(t)
			printResult(tc.result)
			if len(*lines) != 1 || (*lines)[0] != tc.want {
				t.Fatalf("got %v, want %q", *lines, tc.want)
			}
		})
	}
}
