package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/errors"
	"resumecanvas/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDocumentError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewDocumentError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewDocumentError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// LoadDocument reads and decodes a document JSON file
func (fp *FileProcessor) LoadDocument(filename string) (*canvas.Document, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsJSONFile(filename) {
		if fp.logger != nil {
			fp.logger.Warn("File does not have a .json extension",
				"filename", filename)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s does not have a .json extension\n", filename)
		}
	}

	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err // Error already wrapped by ReadFile
	}

	var doc canvas.Document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File %s is not a valid document", filename), err)
	}

	return &doc, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewDocumentError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, content, 0600)
	if err != nil {
		return errors.NewDocumentError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// WriteOutput writes content to a file, or to stdout when filename is empty
func (fp *FileProcessor) WriteOutput(filename string, content []byte) error {
	if filename == "" {
		_, err := os.Stdout.Write(content)
		return err
	}

	if err := fp.ValidateOutputFile(filename); err != nil {
		return err
	}

	if err := fp.WriteFile(filename, content); err != nil {
		return err // Error already wrapped by WriteFile
	}

	if fp.logger != nil {
		fp.logger.Info("Output written successfully",
			"file", filename, "size", utils.FormatFileSize(int64(len(content))))
	}
	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
