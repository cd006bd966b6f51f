package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sortwise/internal/model"
)

// HedgingTerms are words the model must never use in its answer.
var HedgingTerms = []string{
	"typically",
	"usually",
	"may be",
	"might be",
	"often",
	"generally",
	"in most areas",
	"depending on",
	"could be",
	"possibly",
}

const promptPreamble = `You are a recycling expert. Identify the exact item the user is asking about and decide whether it is recyclable STRICTLY under the user's local recycling program. Give one definitive answer for this one item.`

// locationRule is emitted for every request, with or without a ZIP.
const locationRule = `ABSOLUTE LOCATION RULE (NON-NEGOTIABLE):
- If ANY user location is provided, you MUST look up the recycling rules of the local program or hauler that serves that location and answer according to THOSE rules.
- You MUST NOT give a generic or national answer when a location is provided.
- Name the local program or hauler you used in local_program.`

const outputSchema = `OUTPUT FORMAT (return ONLY this JSON object, no markdown, no extra text):
{
  "item": "<exact item name>",
  "material": "<primary material>",
  "recyclable": <true | false>,
  "bin": "<%s>",
  "instructions": "<one sentence of prep guidance>",
  "reason": "<one sentence justification>",
  "local_program": "<local program or hauler name>",
  "confidence": <number from 0.0 to 1.0>
}`

const textRules = `TEXT INPUT RULES:
- Identify the item using ONLY the literal text below. Do not assume details that are not written.
- Do NOT invent brand names or product names that the text does not contain.
- If the text is not enough to identify the item, return item="unknown", recyclable=false, bin="trash" and explain in reason which detail is missing.
USER TEXT: %q`

// BuildPrompt produces the instruction for one classification request.
// It is a pure function of the request.
func BuildPrompt(req model.ClassificationRequest) string {
	bins := make([]string, len(model.Bins))
	for i, b := range model.Bins {
		bins[i] = string(b)
	}

	sections := []string{
		promptPreamble,
		locationRule,
		"FORBIDDEN WORDS: never use " + quoteAll(HedgingTerms) + " or any similar hedging language. State the rule as a fact.",
		fmt.Sprintf(outputSchema, strings.Join(bins, " | ")),
		locationLine(req.PostalCode),
	}

	if req.Mode == model.ScanModeText {
		sections = append(sections, fmt.Sprintf(textRules, req.TrimmedText()))
	}

	return strings.Join(sections, "\n\n")
}

func locationLine(zip string) string {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return "USER LOCATION: (not provided)"
	}
	return "USER LOCATION ZIP: " + zip
}

func quoteAll(terms []string) string {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"`
	}
	return strings.Join(quoted, ", ")
}
