package cli

import (
	"bytes"
	"fmt"

	"resumecanvas/internal/common"
	"resumecanvas/internal/export"

	"github.com/spf13/cobra"
)

var printCmd = &cobra.Command{
	Use:   "print [document-file]",
	Short: "Render a document file as print-ready HTML",
	Long: `Render a canvas document as standalone HTML sized for printing.
The output carries an @page rule matching the document dimensions and
none of the editor chrome (selection borders, grid, zoom).`,
	Args: cobra.ExactArgs(1),
	RunE: runPrint,
}

var printOutputFile string

func init() {
	printCmd.Flags().StringVarP(&printOutputFile, "output", "o", "", "Output file path (default: stdout)")
}

func runPrint(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	doc, err := fileProcessor.LoadDocument(args[0])
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.PrintHTML(&buf, doc, cfg.Export.Title); err != nil {
		return fmt.Errorf("failed to render printable HTML: %w", err)
	}

	return fileProcessor.WriteOutput(printOutputFile, buf.Bytes())
}
