package cli

import (
	"fmt"

	"resumecanvas/internal/client"
	"resumecanvas/internal/common"
	"resumecanvas/internal/config"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push [document-id] [document-file]",
	Short: "Save a document file to the resume backend",
	Long: `Save a canvas document JSON file to the resume backend under the
given document ID. The backend base URL and bearer token come from the
configuration.`,
	Args: cobra.ExactArgs(2),
	RunE: runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Vault may hold the backend token
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply Vault secrets: %w", err)
	}

	fileProcessor := common.NewFileProcessor(logger)
	doc, err := fileProcessor.LoadDocument(args[1])
	if err != nil {
		return err
	}

	backend := client.NewClient(&cfg.Backend, logger)
	if err := backend.Save(cmd.Context(), args[0], doc); err != nil {
		return err
	}

	logger.Info("Document pushed successfully",
		"document_id", args[0],
		"elements", len(doc.Elements))
	fmt.Printf("Document %s saved\n", args[0])
	return nil
}
