package cli

import (
	"encoding/json"
	"fmt"

	"resumecanvas/internal/client"
	"resumecanvas/internal/common"
	"resumecanvas/internal/config"

	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull [document-id]",
	Short: "Fetch a document from the resume backend",
	Long: `Fetch a document from the resume backend by ID and write it as JSON.
The backend base URL and bearer token come from the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

var pullOutputFile string

func init() {
	pullCmd.Flags().StringVarP(&pullOutputFile, "output", "o", "", "Output file path (default: stdout)")
}

func runPull(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Vault may hold the backend token
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply Vault secrets: %w", err)
	}

	backend := client.NewClient(&cfg.Backend, logger)
	doc, err := backend.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	content = append(content, '\n')

	fileProcessor := common.NewFileProcessor(logger)
	if err := fileProcessor.WriteOutput(pullOutputFile, content); err != nil {
		return err
	}

	logger.Info("Document pulled successfully",
		"document_id", args[0],
		"elements", len(doc.Elements))
	return nil
}
