// Package input loads and validates issue hierarchy documents.
//
// A document is a JSON or YAML file naming a target repository, optional
// repository-wide defaults, and a flat list of issues whose parent_id
// references form a tree. Loading also produces the SHA-256 digest of the
// raw file bytes, which identifies the input across runs.
package input

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmaddaus/cairn/internal/model"
)

// Load reads a document from path, decoding JSON or YAML by file extension
// (.yaml/.yml means YAML, anything else JSON). It returns the parsed
// document and the hex-encoded SHA-256 digest of the file bytes.
func Load(path string) (*model.Document, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read input file: %w", err)
	}

	digest := sha256.Sum256(data)

	var doc model.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, "", fmt.Errorf("parse YAML input: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, "", fmt.Errorf("parse JSON input: %w", err)
		}
	}

	return &doc, hex.EncodeToString(digest[:]), nil
}
