package standings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// FileSource reads a snapshot from a YAML or JSON file.
type FileSource struct {
	path   string
	logger *logrus.Logger
}

func NewFileSource(path string, logger *logrus.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Fetch(ctx context.Context) (*playoff.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read standings file %s: %w", s.path, err)
	}

	snapshot, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse standings file %s: %w", s.path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":   s.path,
		"season": snapshot.Season,
		"teams":  len(snapshot.Teams),
	}).Info("Loaded standings snapshot")
	return snapshot, nil
}

// ParseSnapshot decodes a JSON object or a YAML document.
func ParseSnapshot(data []byte) (*playoff.Snapshot, error) {
	var snapshot playoff.Snapshot
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		// JSON indented with tabs is not valid YAML
		if err := json.Unmarshal(trimmed, &snapshot); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	if err := checkSnapshot(&snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
