package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"caramelo/internal/models"
)

// Batch file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FileSource replays a recorded batch. The file is re-read on every fetch,
// so rewriting it acts like a new batch from the backend.
type FileSource struct {
	path string
}

// NewFileSource creates a source that replays the batch file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs and metrics.
func (s *FileSource) Name() string { return "file" }

// Fetch reads and decodes the batch file.
func (s *FileSource) Fetch(_ context.Context) ([]models.Packet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()
	return DecodeBatch(f, FormatFromName(s.path))
}

// FormatFromName picks the batch format from a file extension, defaulting
// to JSON.
func FormatFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// DecodeBatch reads a batch in the backend's shape, either {"packets": [...]}
// or a bare list of packets. Only a malformed document is an error; records
// that fail to decode are skipped.
func DecodeBatch(r io.Reader, format string) ([]models.Packet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	if format == FormatYAML {
		if data, err = yamlToJSON(data); err != nil {
			return nil, err
		}
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		return decodeRecords(raws), nil
	}
	var batch models.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return decodeRecords(batch.Packets), nil
}

// yamlToJSON re-encodes YAML as JSON so both formats share the packet
// decoding rules.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml batch: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml batch: %w", err)
	}
	return out, nil
}
