package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/openats/internal/kv"
	"github.com/rcliao/openats/internal/model"
)

// TemplateInput holds every template field except the id.
type TemplateInput struct {
	Name      string             `json:"name" yaml:"name"`
	Type      model.TemplateType `json:"type" yaml:"type"`
	Subject   string             `json:"subject" yaml:"subject"`
	Blocks    []model.Block      `json:"blocks" yaml:"blocks"`
	EditedAt  string             `json:"editedAt" yaml:"editedAt"`
	CreatedBy string             `json:"createdBy" yaml:"createdBy"`
}

func (in TemplateInput) template(id int64) model.Template {
	return model.Template{
		ID:        id,
		Name:      in.Name,
		Type:      in.Type,
		Subject:   in.Subject,
		Blocks:    withBlockIDs(in.Blocks),
		EditedAt:  in.EditedAt,
		CreatedBy: in.CreatedBy,
	}
}

// TemplatePatch changes only the fields that are set.
type TemplatePatch struct {
	Name      *string             `json:"name,omitempty"`
	Type      *model.TemplateType `json:"type,omitempty"`
	Subject   *string             `json:"subject,omitempty"`
	Blocks    *[]model.Block      `json:"blocks,omitempty"`
	EditedAt  *string             `json:"editedAt,omitempty"`
	CreatedBy *string             `json:"createdBy,omitempty"`
}

func (p TemplatePatch) apply(t *model.Template) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Blocks != nil {
		t.Blocks = withBlockIDs(*p.Blocks)
	}
	if p.EditedAt != nil {
		t.EditedAt = *p.EditedAt
	}
	if p.CreatedBy != nil {
		t.CreatedBy = *p.CreatedBy
	}
}

// withBlockIDs copies blocks, giving a fresh id to any block without one.
func withBlockIDs(blocks []model.Block) []model.Block {
	if blocks == nil {
		return []model.Block{}
	}
	out := make([]model.Block, len(blocks))
	for i, b := range blocks {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		out[i] = b
	}
	return out
}

// TemplateStore keeps message templates. An empty store yields the seed set.
type TemplateStore struct {
	c   *Collection[model.Template, int64]
	now func() time.Time
}

// NewTemplateStore returns the template store over storage.
func NewTemplateStore(storage kv.Storage, cfg Config) (*TemplateStore, error) {
	c, err := New(storage, Options[model.Template, int64]{
		Key:      TemplatesKey,
		IDOf:     func(t model.Template) int64 { return t.ID },
		SetID:    func(t *model.Template, id int64) { t.ID = id },
		Fallback: model.SeedTemplates,
		Validate: func(t model.Template) error { return model.Validate(t) },
		Logger:   cfg.Logger,
		Metrics:  cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &TemplateStore{c: c, now: cfg.now()}, nil
}

// List returns all templates.
func (s *TemplateStore) List(ctx context.Context) []model.Template {
	return s.c.Load(ctx)
}

// LoadResult returns all templates with the load outcome.
func (s *TemplateStore) LoadResult(ctx context.Context) LoadResult[model.Template] {
	return s.c.LoadResult(ctx)
}

// Get returns the template with the given id.
func (s *TemplateStore) Get(ctx context.Context, id int64) (model.Template, bool) {
	return s.c.Find(ctx, id)
}

// nextTemplateID derives an id from the clock, moved past every existing id.
func nextTemplateID(all []model.Template, now time.Time) int64 {
	id := now.UnixMilli()
	for _, t := range all {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	return id
}

// Add stores a new template and returns it with its assigned id.
func (s *TemplateStore) Add(ctx context.Context, in TemplateInput) (model.Template, error) {
	var created model.Template
	err := s.c.Mutate(ctx, func(all []model.Template) ([]model.Template, bool, error) {
		created = in.template(nextTemplateID(all, s.now()))
		return append(all, created), true, nil
	})
	return created, err
}

// Update replaces every field of template id with in.
func (s *TemplateStore) Update(ctx context.Context, id int64, in TemplateInput) (bool, error) {
	_, ok, err := s.c.Replace(ctx, id, in.template(id))
	return ok, err
}

// Patch changes the fields set in p on template id, leaving the rest as is.
func (s *TemplateStore) Patch(ctx context.Context, id int64, p TemplatePatch) (model.Template, bool, error) {
	return s.c.Update(ctx, id, p.apply)
}

// Delete removes template id. Deleting a missing id is not an error.
func (s *TemplateStore) Delete(ctx context.Context, id int64) error {
	_, err := s.c.Remove(ctx, id)
	return err
}

// Duplicate stores a copy of template id under a new id with the name marked
// as a copy. ok is false and nothing is written when id does not exist.
func (s *TemplateStore) Duplicate(ctx context.Context, id int64) (model.Template, bool, error) {
	var dup model.Template
	found := false
	err := s.c.Mutate(ctx, func(all []model.Template) ([]model.Template, bool, error) {
		i := s.c.index(all, id)
		if i < 0 {
			return nil, false, nil
		}
		dup = all[i].Clone()
		dup.ID = nextTemplateID(all, s.now())
		dup.Name += model.CopySuffix
		dup.EditedAt = model.EditedJustNow
		found = true
		return append(all, dup), true, nil
	})
	return dup, found, err
}

// Render returns template id with placeholders filled from vars, falling
// back to the editor's sample values for anything vars leaves out.
func (s *TemplateStore) Render(ctx context.Context, id int64, vars map[string]string) (model.Template, bool) {
	t, ok := s.Get(ctx, id)
	if !ok {
		return t, false
	}
	values := model.SampleValues()
	for k, v := range vars {
		values[k] = v
	}
	return model.Render(t, values), true
}
