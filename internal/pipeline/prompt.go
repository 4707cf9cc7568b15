package pipeline

import "strings"

// SystemInstruction tells the model what to extract and how to answer.
const SystemInstruction = `Your task is to act as a legal document parser.
Extract the following data fields for ONE case:
1. Case Number
2. Case Title
3. Facts
4. Decision
5. Ruling
6. Verdict

Crucially, you must adhere to the following:
- Do NOT change or summarize the data; get the NECESSARY RAW data from the webpage content.
- Output the result as a single, valid JSON array of objects.
- The JSON array must contain exactly ONE object.
- The object must have the exact keys: "Case Number", "Case Title", "Facts", "Decision", "Ruling", and "Verdict".
- Ensure all values are correctly enclosed in double quotes.`

// BuildPrompt wraps page text into the user turn of the model call.
func BuildPrompt(pageText string) string {
	var b strings.Builder
	b.Grow(len(pageText) + 128)
	b.WriteString("Here is the page text to extract from:\n\n")
	b.WriteString(pageText)
	b.WriteString("\n\nExtract the case data as JSON per system instruction.")
	return b.String()
}
