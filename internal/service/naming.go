package service

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// objectKey builds "<folder>/<yyyymmdd-hhmmss>-<8 hex><ext>". The random suffix keeps
// same-second requests from overwriting each other.
func objectKey(folder string, now time.Time, ext string) string {
	return folder + "/" + now.Format("20060102-150405") + "-" + uuid.NewString()[:8] + ext
}

// safeFilename accepts a single, non-hidden path element.
func safeFilename(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return path.Base(name) == name
}
