package cli

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Last prints the caller's most recent upload attempt.
func (a *App) Last(ctx context.Context) error {

	record, err := a.api.Latest(ctx)
	if err != nil {
		printlnFn("Query failed:", err.Error())
		return err
	}
	if record == nil {
		printlnFn("No uploads yet")
		return nil
	}

	line := fmt.Sprintf("%s  %s  %d bytes  %s", record.Filename, record.Status, record.SizeBytes,
		record.UploadTime.Format("2006-01-02 15:04:05"))
	if record.ErrorMessage != nil {
		line += "  " + *record.ErrorMessage
	}
	printlnFn(line)
	return nil
}

// Csv fetches the server-wide upload history; with an empty path it prints
// to the console, otherwise it writes the file.
func (a *App) Csv(ctx context.Context, path string) error {

	data, err := a.api.ExportCSV(ctx)
	if err != nil {
		printlnFn("Export failed:", err.Error())
		return err
	}

	if path == "" {
		printlnFn(string(data))
		return nil
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		printlnFn("Cannot write file:", err.Error())
		return err
	}
	printlnFn("Saved to", path)
	return nil
}

// Download saves a stored file locally; with an empty path the content goes
// to a file named after the upload in the current directory.
func (a *App) Download(ctx context.Context, name, path string) error {

	data, err := a.api.Download(ctx, name)
	if err != nil {
		printlnFn("Download failed:", err.Error())
		return err
	}

	if path == "" {
		path = name
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		printlnFn("Cannot write file:", err.Error())
		return err
	}
	printlnFn("Saved to", path)
	return nil
}

// Ping probes the server and prints its uptime.
func (a *App) Ping(ctx context.Context) error {

	status, err := a.api.Uptime(ctx)
	if err != nil {
		printlnFn("Server unavailable:", err.Error())
		return err
	}
	uptime := time.Duration(status.UptimeSeconds) * time.Second
	printlnFn(fmt.Sprintf("Server is up for %s (started %s)",
		uptime, status.StartTime.Format("2006-01-02 15:04:05")))
	return nil
}
