package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for document uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"txt":  {},
	"md":   {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtensionAllowed reports whether a document with this extension is accepted.
func ExtensionAllowed(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
