package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeID derives the stable identifier for a symbol. It is a pure function
// of the owning file, kind, qualified name, and starting line, so
// re-extracting unchanged code always yields the same id.
func NodeID(filePath string, kind NodeKind, qualifiedName string, startLine int) string {
	return hashString(fmt.Sprintf("%s|%s|%s|%d", filePath, kind, qualifiedName, startLine))
}

// ContentHash hashes raw file content for change detection.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
