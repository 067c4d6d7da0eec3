package cli

import (
	"fmt"

	"resumecanvas/internal/common"
	"resumecanvas/internal/share"

	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share [document-file]",
	Short: "Create a shareable read-only link for a document file",
	Long: `Encode a canvas document into a self-contained share link.
The document travels inside the link itself, so the recipient needs no
backend access to view it.`,
	Args: cobra.ExactArgs(1),
	RunE: runShare,
}

func runShare(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	doc, err := fileProcessor.LoadDocument(args[0])
	if err != nil {
		return err
	}

	link, err := share.EncodeLink(cfg.Share.BaseURL, *doc)
	if err != nil {
		return fmt.Errorf("failed to create share link: %w", err)
	}

	fmt.Println(link)
	return nil
}
