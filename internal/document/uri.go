package document

import (
	"net/url"
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// PathToUri converts a file path to a file URI, resolving relative paths
// against workspaceRoot
func PathToUri(filePath string, workspaceRoot string) string {
	if strings.HasPrefix(filePath, fileScheme) {
		return filePath
	}

	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(workspaceRoot, filePath)
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Clean(filePath))}).String()
}

// UriToPath converts a file URI to a local file path
func UriToPath(uri string) string {
	path, ok := strings.CutPrefix(uri, fileScheme)
	if !ok {
		return uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return filepath.FromSlash(path)
}

// GetRelativePath converts absolute path to relative path from workspace root
func GetRelativePath(absolutePath, workspaceRoot string) string {
	if rel, err := filepath.Rel(workspaceRoot, absolutePath); err == nil {
		return rel
	}
	return filepath.Base(absolutePath)
}
