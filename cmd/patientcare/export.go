package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/patientcare/patientcare/internal/config"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a doctor's data from the configured store",
	}

	icsCmd := &cobra.Command{
		Use:   "ics",
		Short: "Export unavailable dates as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, func(ctx context.Context, svc *services, doctorID string) (string, []byte, error) {
				name, body, err := svc.availability.ExportICS(ctx, doctorID)
				return name, []byte(body), err
			})
		},
	}

	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Export the patient records a doctor may see as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, func(ctx context.Context, svc *services, doctorID string) (string, []byte, error) {
				return svc.records.Export(ctx, doctorID)
			})
		},
	}

	for _, c := range []*cobra.Command{icsCmd, recordsCmd} {
		c.Flags().String("doctor", "", "Doctor id (required)")
		c.Flags().String("out", "", "Output file or directory; '-' writes to stdout (default: the suggested filename)")
		_ = c.MarkFlagRequired("doctor")
		cmd.AddCommand(c)
	}
	return cmd
}

type exportFunc func(ctx context.Context, svc *services, doctorID string) (filename string, body []byte, err error)

func runExport(cmd *cobra.Command, export exportFunc) error {
	doctorID, _ := cmd.Flags().GetString("doctor")
	out, _ := cmd.Flags().GetString("out")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	ctx := cmd.Context()
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	cipher, err := newCipher(cfg, logger)
	if err != nil {
		return err
	}
	svc := newServices(be.store, nil, cipher, logger)

	filename, body, err := export(ctx, svc, doctorID)
	if err != nil {
		return err
	}
	return writeExport(cmd.OutOrStdout(), out, filename, body)
}

// writeExport writes body to stdout for "-", into dir/filename when out is a
// directory, to out itself otherwise, or to filename when out is empty.
func writeExport(stdout io.Writer, out, filename string, body []byte) error {
	if out == "-" {
		_, err := stdout.Write(body)
		return err
	}
	path := filename
	if out != "" {
		path = out
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			path = filepath.Join(out, filename)
		}
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%d bytes)\n", path, len(body))
	return nil
}
