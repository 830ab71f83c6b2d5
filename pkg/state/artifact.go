package state

import (
	"os"
	"path/filepath"
	"strings"
)

// ArtifactRoot is EMBEDGEN_ARTIFACT_ROOT made absolute, or "". Packaged
// builds set it so the database lives next to the binary's artifacts.
func ArtifactRoot() string {
	root := strings.TrimSpace(os.Getenv("EMBEDGEN_ARTIFACT_ROOT"))
	if root == "" {
		return ""
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

func ArtifactPath(elem ...string) string {
	root := ArtifactRoot()
	if root == "" {
		return ""
	}
	return filepath.Join(append([]string{root}, elem...)...)
}
