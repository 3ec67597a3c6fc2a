package llm

import "strings"

// ResumeSystemPrompt instructs the model how to treat the resume text it receives.
const ResumeSystemPrompt = "You are a resume conversion assistant. Extract information from the user's resume text and format it into the given structure."

// BuildUserPrompt trims the extracted text and caps it at maxChars runes (0 keeps everything).
func BuildUserPrompt(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars])
}
