package model

// TemplateType categorizes a message template.
type TemplateType string

const (
	TemplateOffer      TemplateType = "offer"
	TemplateRejection  TemplateType = "rejection"
	TemplateAssessment TemplateType = "assessment"
	TemplateGeneral    TemplateType = "general"
)

// BlockKind is the kind of a template content block.
type BlockKind string

const (
	BlockHeading BlockKind = "heading"
	BlockText    BlockKind = "text"
	BlockButton  BlockKind = "button"
	BlockImage   BlockKind = "image"
	BlockDivider BlockKind = "divider"
	BlockSpacer  BlockKind = "spacer"
)

// ValidTemplateTypes are the allowed template categories.
var ValidTemplateTypes = map[TemplateType]bool{
	TemplateOffer:      true,
	TemplateRejection:  true,
	TemplateAssessment: true,
	TemplateGeneral:    true,
}

// Block is one ordered piece of template content.
type Block struct {
	ID      string    `json:"id" yaml:"id" validate:"required"`
	Kind    BlockKind `json:"kind" yaml:"kind" validate:"required,oneof=heading text button image divider spacer"`
	Content string    `json:"content" yaml:"content"`
}

// Template is an email template edited in the settings pages.
type Template struct {
	ID        int64        `json:"id" yaml:"id" validate:"required"`
	Name      string       `json:"name" yaml:"name" validate:"required"`
	Type      TemplateType `json:"type" yaml:"type" validate:"required,oneof=offer rejection assessment general"`
	Subject   string       `json:"subject" yaml:"subject"`
	Blocks    []Block      `json:"blocks" yaml:"blocks" validate:"dive"`
	EditedAt  string       `json:"editedAt" yaml:"editedAt"`
	CreatedBy string       `json:"createdBy" yaml:"createdBy"`
}

// CopySuffix marks a duplicated template's name.
const CopySuffix = " (Copy)"

// EditedJustNow is the edited-at label for freshly touched templates.
const EditedJustNow = "Just now"

// Clone returns a copy of t that shares no block storage with t.
func (t Template) Clone() Template {
	c := t
	if t.Blocks != nil {
		c.Blocks = make([]Block, len(t.Blocks))
		copy(c.Blocks, t.Blocks)
	}
	return c
}
