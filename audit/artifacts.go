package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// artifactExt maps each artifact kind to its on-disk extension.
var artifactExt = map[ArtifactKind]string{
	ArtifactScreenshot:  "png",
	ArtifactVisibleText: "txt",
	ArtifactFeatures:    "json",
	ArtifactHTML:        "html.gz",
}

// FSWriter stores artifacts under root/<sessionID>/<pageID>.<kind>.<ext>
// and reports size plus SHA-256 checksum.
type FSWriter struct {
	root string
}

// NewFSWriter builds a writer rooted at dir, creating it if needed.
func NewFSWriter(dir string) (*FSWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact root: %w", err)
	}
	return &FSWriter{root: dir}, nil
}

// Write persists data and returns its reference. An empty payload is an
// error; callers skip absent artifacts instead of writing them empty.
func (w *FSWriter) Write(ctx context.Context, sessionID, pageID string, kind ArtifactKind, data []byte) (ArtifactRef, error) {
	if len(data) == 0 {
		return ArtifactRef{}, fmt.Errorf("empty %s artifact for page %s", kind, pageID)
	}
	if err := ctx.Err(); err != nil {
		return ArtifactRef{}, err
	}

	ext, ok := artifactExt[kind]
	if !ok {
		return ArtifactRef{}, fmt.Errorf("unknown artifact kind %q", kind)
	}

	dir := filepath.Join(w.root, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ArtifactRef{}, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.%s", pageID, kind, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ArtifactRef{}, err
	}

	sum := sha256.Sum256(data)
	return ArtifactRef{
		URI:      "file://" + path,
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}
