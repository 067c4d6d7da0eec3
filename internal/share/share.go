// Package share encodes a working document into a shareable URL. The link
// carries the document itself, so sharing never requires a save first: the
// recipient sees the draft exactly as it stood when the link was made.
package share

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/errors"
)

// sharePath is the viewer route that decodes the data parameter.
const sharePath = "/resume/share"

// EncodeLink serializes the document into a transport-safe string embedded
// in a URL under the given base (scheme + host).
func EncodeLink(baseURL string, doc canvas.Document) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInvalidFormat,
			"failed to serialize document for sharing", err)
	}

	data := base64.URLEncoding.EncodeToString(payload)
	return fmt.Sprintf("%s%s?data=%s", strings.TrimRight(baseURL, "/"), sharePath, data), nil
}

// DecodeLink recovers a document from a share URL or from a bare data
// parameter value.
func DecodeLink(link string) (canvas.Document, error) {
	data := link
	if strings.Contains(link, "?") {
		u, err := url.Parse(link)
		if err != nil {
			return canvas.Document{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				"invalid share link", err)
		}
		data = u.Query().Get("data")
	}
	if data == "" {
		return canvas.Document{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"share link carries no document data", nil)
	}

	payload, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return canvas.Document{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"share data is not valid base64", err)
	}

	var doc canvas.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return canvas.Document{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"share data is not a valid document", err)
	}
	return doc, nil
}
