package session

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Image previews above this size are skipped; the descriptor still crosses
// the boundary, just without an inline payload.
const maxPreviewBytes = 256 * 1024

// FileRefFromPath builds an attachment descriptor from a file on disk.
// Small images get an inline data-URL preview.
func FileRefFromPath(path string) (FileRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return FileRef{}, fmt.Errorf("attachment %q is a directory", path)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	ref := FileRef{
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		MimeType:  mimeType,
	}

	if strings.HasPrefix(mimeType, "image/") && info.Size() <= maxPreviewBytes {
		data, err := os.ReadFile(path)
		if err == nil {
			ref.PreviewURL = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
		}
	}

	return ref, nil
}
