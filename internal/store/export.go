package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/openats/internal/model"
)

// Snapshot holds the contents of every collection. A nil section is left
// untouched on import.
type Snapshot struct {
	Archive    []model.ArchiveEntry `json:"archive" yaml:"archive"`
	Templates  []model.Template     `json:"templates" yaml:"templates"`
	Candidates []model.Candidate    `json:"candidates" yaml:"candidates"`
}

// ImportResult counts the records written per collection.
type ImportResult struct {
	Archive    int `json:"archive"`
	Templates  int `json:"templates"`
	Candidates int `json:"candidates"`
}

// Snapshot encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export returns the current contents of every collection, fallbacks included.
func (s *Stores) Export(ctx context.Context) Snapshot {
	return Snapshot{
		Archive:    s.Archive.c.Load(ctx),
		Templates:  s.Templates.c.Load(ctx),
		Candidates: s.Candidates.c.Load(ctx),
	}
}

// Import writes snap into the stores. Without merge each present section
// replaces its collection; with merge records overwrite those sharing their
// identity and the rest are appended.
func (s *Stores) Import(ctx context.Context, snap Snapshot, merge bool) (ImportResult, error) {
	var res ImportResult
	var err error
	if snap.Archive != nil {
		if res.Archive, err = importInto(ctx, s.Archive.c, snap.Archive, merge); err != nil {
			return res, fmt.Errorf("import archive: %w", err)
		}
	}
	if snap.Templates != nil {
		if res.Templates, err = importInto(ctx, s.Templates.c, snap.Templates, merge); err != nil {
			return res, fmt.Errorf("import templates: %w", err)
		}
	}
	if snap.Candidates != nil {
		if res.Candidates, err = importInto(ctx, s.Candidates.c, snap.Candidates, merge); err != nil {
			return res, fmt.Errorf("import candidates: %w", err)
		}
	}
	return res, nil
}

func importInto[T any, K comparable](ctx context.Context, c *Collection[T, K], incoming []T, merge bool) (int, error) {
	if !merge {
		if err := c.Persist(ctx, incoming); err != nil {
			return 0, err
		}
		return len(incoming), nil
	}
	err := c.Mutate(ctx, func(all []T) ([]T, bool, error) {
		for _, rec := range incoming {
			if i := c.index(all, c.idOf(rec)); i >= 0 {
				all[i] = rec
				continue
			}
			all = append(all, rec)
		}
		return all, true, nil
	})
	if err != nil {
		return 0, err
	}
	return len(incoming), nil
}

// EncodeSnapshot writes snap to w in format.
func EncodeSnapshot(w io.Writer, snap Snapshot, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
}

// DecodeSnapshot reads a snapshot in format from r.
func DecodeSnapshot(r io.Reader, format string) (Snapshot, error) {
	var snap Snapshot
	switch strings.ToLower(format) {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return snap, fmt.Errorf("parse json: %w", err)
		}
	case FormatYAML, "yml":
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return snap, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return snap, fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
	return snap, nil
}
