package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jgoulah/powerpal/pkg/models"
)

// ArtifactStore persists the fitted model between runs.
// Load returns models.ErrNotFound when nothing has been saved.
type ArtifactStore interface {
	Save(ctx context.Context, model *LinearModel) error
	Load(ctx context.Context) (*LinearModel, error)
}

// FileArtifacts stores the model as a JSON document on the local filesystem
type FileArtifacts struct {
	path string
}

// NewFileArtifacts creates an artifact store writing to path
func NewFileArtifacts(path string) *FileArtifacts {
	return &FileArtifacts{path: path}
}

// Save writes the model using a temp file + rename so readers never see a partial artifact
func (s *FileArtifacts) Save(ctx context.Context, model *LinearModel) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating model directory: %v", models.ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", models.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing model: %v", models.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing model: %v", models.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing model: %v", models.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replacing model: %v", models.ErrIO, err)
	}

	return nil
}

// Load reads the model saved by Save
func (s *FileArtifacts) Load(ctx context.Context) (*LinearModel, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("model %s: %w", s.path, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: reading model: %v", models.ErrIO, err)
	}

	var model LinearModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("%w: decoding model: %v", models.ErrIO, err)
	}
	return &model, nil
}
