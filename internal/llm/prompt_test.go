package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/sortwise/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name         string
		req          model.ClassificationRequest
		wantLocation string
		wantText     bool
	}{
		{
			name:         "text with zip",
			req:          model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "  Starbucks paper cup with plastic lid ", PostalCode: "94102"},
			wantLocation: "USER LOCATION ZIP: 94102",
			wantText:     true,
		},
		{
			name:         "text without zip",
			req:          model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "pizza box"},
			wantLocation: "USER LOCATION: (not provided)",
			wantText:     true,
		},
		{
			name:         "photo with zip",
			req:          model.ClassificationRequest{Mode: model.ScanModePhoto, PostalCode: "10001"},
			wantLocation: "USER LOCATION ZIP: 10001",
		},
		{
			name:         "photo without zip",
			req:          model.ClassificationRequest{Mode: model.ScanModePhoto},
			wantLocation: "USER LOCATION: (not provided)",
		},
		{
			name:         "empty text still gets text rules",
			req:          model.ClassificationRequest{Mode: model.ScanModeText},
			wantLocation: "USER LOCATION: (not provided)",
			wantText:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildPrompt(tt.req)

			assert.Contains(t, prompt, locationRule, "location rule must always be present")
			assert.Contains(t, prompt, tt.wantLocation)
			for _, term := range HedgingTerms {
				assert.Contains(t, prompt, `"`+term+`"`)
			}
			assert.Contains(t, prompt, `"bin": "<recycling | trash | compost | special_dropoff>"`)
			assert.Contains(t, prompt, "0.0 to 1.0")

			if tt.wantText {
				assert.Contains(t, prompt, "TEXT INPUT RULES")
				assert.Contains(t, prompt, `item="unknown", recyclable=false, bin="trash"`)
				assert.Contains(t, prompt, "Do NOT invent brand names")
			} else {
				assert.NotContains(t, prompt, "TEXT INPUT RULES")
			}
		})
	}
}

func TestBuildPromptSectionOrder(t *testing.T) {
	prompt := BuildPrompt(model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "glass jar", PostalCode: "94102"})

	markers := []string{
		"You are a recycling expert",
		"ABSOLUTE LOCATION RULE",
		"FORBIDDEN WORDS",
		"OUTPUT FORMAT",
		"USER LOCATION ZIP: 94102",
		"TEXT INPUT RULES",
		`USER TEXT: "glass jar"`,
	}

	last := -1
	for _, marker := range markers {
		idx := strings.Index(prompt, marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	req := model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "aluminum can", PostalCode: "60601"}
	assert.Equal(t, BuildPrompt(req), BuildPrompt(req))
}

func TestBuildPromptOnlyDiffersInLocationLine(t *testing.T) {
	with := BuildPrompt(model.ClassificationRequest{Mode: model.ScanModePhoto, PostalCode: "94102"})
	without := BuildPrompt(model.ClassificationRequest{Mode: model.ScanModePhoto})

	assert.Equal(t,
		strings.Replace(with, "USER LOCATION ZIP: 94102", "", 1),
		strings.Replace(without, "USER LOCATION: (not provided)", "", 1))
}
