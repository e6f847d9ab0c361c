package model

// seedTemplates ships with the product so the templates page is never empty.
var seedTemplates = []Template{
	{
		ID: 1, Type: TemplateOffer, Name: "Software Engineering Offer Letter",
		Subject: "Your Offer Letter — {{job_title}} at {{company_name}}",
		Blocks: []Block{
			{ID: "h1", Kind: BlockHeading, Content: "Welcome aboard, {{candidate_name}}!"},
			{ID: "t1", Kind: BlockText, Content: "We are thrilled to offer you the position of {{job_title}} at {{company_name}}.\n\nYour compensation will be {{currency}} {{salary}} per month, starting {{start_date}}.\n\nPlease accept this offer by {{expiry_date}}."},
			{ID: "b1", Kind: BlockButton, Content: "Accept Offer"},
		},
		EditedAt: "14/02/2026", CreatedBy: "Chamal Senarathna",
	},
	{
		ID: 2, Type: TemplateRejection, Name: "Standard Rejection Email",
		Subject: "Your Application for {{job_title}} at {{company_name}}",
		Blocks: []Block{
			{ID: "h1", Kind: BlockHeading, Content: "Thank you for applying, {{candidate_name}}"},
			{ID: "t1", Kind: BlockText, Content: "After careful consideration, we have decided to move forward with other candidates.\n\nWe appreciate your interest in {{company_name}} and encourage you to apply for future openings."},
		},
		EditedAt: "10/02/2026", CreatedBy: "Risikesan Jegatheesan",
	},
	{
		ID: 3, Type: TemplateAssessment, Name: "Technical Assessment Invite",
		Subject: "Complete Your Assessment — {{job_title}}",
		Blocks: []Block{
			{ID: "h1", Kind: BlockHeading, Content: "Hi {{candidate_name}}, you're invited!"},
			{ID: "t1", Kind: BlockText, Content: "As part of the selection process for {{job_title}}, please complete your assessment:"},
			{ID: "b1", Kind: BlockButton, Content: "Start Assessment"},
			{ID: "t2", Kind: BlockText, Content: "This link expires on {{expiry_date}}."},
		},
		EditedAt: "08/02/2026", CreatedBy: "Chamal Senarathna",
	},
	{
		ID: 4, Type: TemplateGeneral, Name: "General Update Email",
		Subject: "Update from {{company_name}}",
		Blocks: []Block{
			{ID: "h1", Kind: BlockHeading, Content: "Hello {{candidate_name}},"},
			{ID: "t1", Kind: BlockText, Content: "We wanted to reach out regarding your application for {{job_title}} at {{company_name}}."},
		},
		EditedAt: "12/02/2026", CreatedBy: "Kishan Ahamed",
	},
	{
		ID: 5, Type: TemplateOffer, Name: "Backend Engineer Offer Letter",
		Subject: "Your Offer — {{job_title}} at {{company_name}}",
		Blocks: []Block{
			{ID: "h1", Kind: BlockHeading, Content: "Congratulations, {{candidate_name}}!"},
			{ID: "t1", Kind: BlockText, Content: "We are excited to offer you the role of {{job_title}} at {{currency}} {{salary}}/month."},
			{ID: "b1", Kind: BlockButton, Content: "View & Accept"},
		},
		EditedAt: "07/02/2026", CreatedBy: "Chamal Senarathna",
	},
}

// SeedTemplates returns a fresh copy of the built-in templates.
func SeedTemplates() []Template {
	out := make([]Template, len(seedTemplates))
	for i, t := range seedTemplates {
		out[i] = t.Clone()
	}
	return out
}
