// Package soffice converts slide decks to PDF by shelling out to
// LibreOffice in headless mode. The resulting PDF goes through the same
// page extraction path as native PDFs.
package soffice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.SlideConverter = (*Converter)(nil)

// ErrConverterNotFound is returned when the soffice binary is not in PATH.
var ErrConverterNotFound = errors.New("soffice binary not found in PATH")

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Converter converts presentations to PDF using LibreOffice.
type Converter struct {
	runner CommandRunner
}

// New creates a converter using the real soffice binary.
func New() *Converter {
	return &Converter{runner: execRunner{}}
}

// NewWithRunner creates a converter with a custom command runner.
func NewWithRunner(runner CommandRunner) *Converter {
	return &Converter{runner: runner}
}

// CheckAvailable reports whether soffice is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("soffice"); err != nil {
		return ErrConverterNotFound
	}
	return nil
}

// InstallInstructions returns platform-specific install guidance.
func InstallInstructions() string {
	return `soffice (LibreOffice) is required for slide conversion:
  macOS:         brew install --cask libreoffice
  Debian/Ubuntu: sudo apt install libreoffice-impress
  Fedora:        sudo dnf install libreoffice-impress`
}

// ConvertToPDF writes the deck to a scratch directory, converts it and
// returns the PDF bytes. The scratch directory is removed afterwards.
func (c *Converter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "driftsync-convert-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input file: %w", err)
	}

	output, err := c.runner.Run(ctx, "soffice",
		"--headless", "--convert-to", "pdf", "--outdir", dir, inputPath)
	if err != nil {
		return nil, fmt.Errorf("soffice failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	pdf, err := os.ReadFile(pdfPath(inputPath))
	if err != nil {
		// soffice exits zero on some conversion failures, the missing
		// output file is the only signal.
		return nil, fmt.Errorf("conversion produced no output for %s: %s", filename, strings.TrimSpace(string(output)))
	}
	return pdf, nil
}

// pdfPath is the output path soffice derives from the input name.
func pdfPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".pdf"
}
