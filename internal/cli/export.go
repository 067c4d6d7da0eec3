package cli

import (
	"bytes"
	"fmt"

	"resumecanvas/internal/common"
	"resumecanvas/internal/export"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [document-file]",
	Short: "Export a document file to PDF or printable HTML",
	Long: `Export a canvas document to a distributable format.
The command takes one argument: the path to a document JSON file.
The output format defaults to the configured default format.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if exportConfig.OutputFormat == "" {
			exportConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(exportConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runExport,
}

var exportConfig common.CommandConfig

func init() {
	exportCmd.Flags().StringVarP(&exportConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportConfig.OutputFormat, "format", "", "Output format: pdf or html")

	// Add completion for format flag
	_ = exportCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	doc, err := fileProcessor.LoadDocument(args[0])
	if err != nil {
		return err
	}

	registry := export.NewRegistry(export.Options{
		Title:  cfg.Export.Title,
		Author: cfg.Export.Author,
	})
	exporter, err := registry.Get(exportConfig.OutputFormat)
	if err != nil {
		return err
	}

	logger.Info("Starting document export",
		"file", args[0],
		"elements", len(doc.Elements),
		"output_format", exportConfig.OutputFormat)

	var buf bytes.Buffer
	if err := exporter.Export(&buf, doc); err != nil {
		return fmt.Errorf("failed to export document: %w", err)
	}

	if err := fileProcessor.WriteOutput(exportConfig.OutputFile, buf.Bytes()); err != nil {
		return err
	}

	logger.Info("Document export completed successfully")
	return nil
}
