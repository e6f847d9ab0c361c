package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedTemplates_FreshCopies(t *testing.T) {
	a := SeedTemplates()
	require.Len(t, a, 5)

	a[0].Name = "mutated"
	a[0].Blocks[0].Content = "mutated"

	b := SeedTemplates()
	assert.Equal(t, "Software Engineering Offer Letter", b[0].Name)
	assert.Equal(t, "Welcome aboard, {{candidate_name}}!", b[0].Blocks[0].Content)

	for _, tpl := range b {
		assert.NoError(t, Validate(tpl), "seed template %d", tpl.ID)
	}
}

func TestValidate(t *testing.T) {
	ok := ArchiveEntry{ID: "1", Type: ArchiveJob, Name: "Eng", ArchivedAt: "2026-02-14T00:00:00Z"}
	assert.NoError(t, Validate(ok))

	bad := ok
	bad.Type = "folder"
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")

	tpl := SeedTemplates()[0]
	tpl.Blocks[0].Kind = "video"
	assert.Error(t, Validate(tpl))

	c := Candidate{ID: "c1", Name: "Jane", Email: "not-an-email"}
	assert.Error(t, Validate(c))
	c.Email = ""
	assert.NoError(t, Validate(c))
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("Hi {{candidate_name}}, {{job_title}} at {{ company_name }} ({{job_title}})")
	assert.Equal(t, []string{"candidate_name", "job_title", "company_name"}, got)
}

func TestRender(t *testing.T) {
	tpl := SeedTemplates()[1]
	out := Render(tpl, map[string]string{"candidate_name": "Sam", "company_name": "Acme"})

	assert.Equal(t, "Your Application for {{job_title}} at Acme", out.Subject)
	assert.Equal(t, "Thank you for applying, Sam", out.Blocks[0].Content)
	// source untouched
	assert.Equal(t, "Thank you for applying, {{candidate_name}}", tpl.Blocks[0].Content)
}

func TestVariables(t *testing.T) {
	v := Variables(TemplateRejection)
	assert.Equal(t, []string{"candidate_name", "job_title", "company_name"}, v)
	v[0] = "x"
	assert.Equal(t, "candidate_name", Variables(TemplateRejection)[0])
	assert.Empty(t, Variables("unknown"))

	samples := SampleValues()
	for _, name := range Variables(TemplateGeneral) {
		assert.Contains(t, samples, name)
	}
}
