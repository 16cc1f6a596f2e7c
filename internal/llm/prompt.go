package llm

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// MaxDocumentChars bounds the document excerpt appended to a prompt
const MaxDocumentChars = 4000

const (
	maxTitleRunes    = 60
	fallbackTitleLen = 30
)

// DefaultSystemPrompt is used when no system prompt file is configured
const DefaultSystemPrompt = `You are Sham'an AI, a friendly and knowledgeable assistant.
Answer clearly and concisely. Use Markdown for lists and code.
Reply in the language the user writes in.`

// DefaultPersonaPrompt is used for health and wellbeing questions when no persona file is configured
const DefaultPersonaPrompt = `You are Sham'an AI in healer mode: a calm, empathetic guide who looks at
the emotional and psychosomatic side of the user's complaints.
Ask clarifying questions, suggest gentle self-reflection practices and
always recommend seeing a qualified doctor for diagnosis and treatment.
Reply in the language the user writes in.`

const titleInstruction = `Write a short title (at most six words) for a conversation that starts
with the message below. Reply with the title only, without quotes or punctuation at the end.`

var personaKeywords = []string{
	// ru
	"здоровье", "симптом", "болит", "больно", "болезнь", "недомогание", "недуг",
	"лечение", "лечить", "вылечить", "избавиться от", "помоги с", "проблема с",
	"диагноз", "диагностика", "анализы", "обследование", "врач", "доктор", "медицина",
	"клиника", "больница", "рецепт", "таблетки", "лекарство",
	"психосоматика", "биологический конфликт", "эмоциональная причина",
	"психолог", "психотерапевт", "душа", "эмоции", "переживания",
	"аллергия", "астма", "давление", "мигрень", "бессонница", "депрессия", "апатия",
	// en
	"health", "symptom", "it hurts", "illness", "disease", "treatment", "diagnosis",
	"doctor", "medicine", "psychosomatic", "allergy", "asthma", "migraine",
	"insomnia", "depression", "anxiety",
}

var personalIndicators = []string{
	"у меня", "меня беспокоит", "я чувствую", "мне ", "со мной", "я страдаю", "я болею",
	"i have", "i feel", "i am suffering", "my ",
}

var personalConcerns = []string{
	"проблем", "самочувстви", "problem", "wellbeing", "feel unwell",
}

// IsPersonaRequest reports whether a prompt should be answered by the healer persona
func IsPersonaRequest(prompt string) bool {
	lower := strings.ToLower(prompt)
	if containsAny(lower, personaKeywords) {
		return true
	}
	return containsAny(lower, personalIndicators) && containsAny(lower, personalConcerns)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// LoadPrompt reads a prompt file, returning fallback when path is empty
func LoadPrompt(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fallback, nil
	}
	return text, nil
}

// WithImageNote appends a note about an attached image
func WithImageNote(prompt, filename string) string {
	return prompt + fmt.Sprintf("\n\n[Attached image: %s. Describe it or take it into account when answering.]", filename)
}

// WithDocumentText appends an extracted document excerpt, truncated to MaxDocumentChars bytes
func WithDocumentText(prompt, filename, text string) string {
	if len(text) > MaxDocumentChars {
		cut := MaxDocumentChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "...\n[document text was truncated]"
	}
	return prompt + fmt.Sprintf("\n\n[Extracted text from document '%s']:\n%s\n[/end of document text]", filename, text)
}

// WithDocumentNote appends a note for documents whose text could not be extracted
func WithDocumentNote(prompt, filename string) string {
	return prompt + fmt.Sprintf("\n\n[Attached document: %s. Text extraction failed or is not supported for this type.]", filename)
}

// BuildTitlePrompt wraps the first user prompt in the title instruction
func BuildTitlePrompt(prompt string) string {
	return titleInstruction + "\n\n" + prompt
}

// CleanTitle normalizes a model-generated title. It returns "" when nothing usable remains.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimPrefix(title, "Title:")
	title = strings.Trim(title, "\"'`*#«» .!")
	return truncateRunes(title, maxTitleRunes, "")
}

// FallbackTitle derives a title from the prompt itself
func FallbackTitle(prompt string) string {
	title := strings.Join(strings.Fields(prompt), " ")
	return truncateRunes(title, fallbackTitleLen, "...")
}

func truncateRunes(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + suffix
}
