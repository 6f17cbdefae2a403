package buddy

import (
	"fmt"
	"strings"
)

// Persona defines one of the companion's selectable characters.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Voice       string `json:"voice"`
	personality string
}

var personas = []Persona{
	{
		ID:          "sakura",
		Name:        "Sakura Yamauchi",
		Voice:       "Kore",
		personality: "You are Sakura Yamauchi. You are bubbly, incredibly observant, and friendly. You help users with their questions and documents.",
	},
	{
		ID:          "haruki",
		Name:        "Haruki Shiga",
		Voice:       "Puck",
		personality: "You are Haruki Shiga. You are calm, sincere, and thoughtful. You are a reliable, stoic but caring companion who provides precise help.",
	},
}

// Personas returns the selectable characters.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// PersonaByID looks up a persona by its identifier.
func PersonaByID(id string) (Persona, error) {
	for _, p := range personas {
		if p.ID == id {
			return p, nil
		}
	}
	return Persona{}, fmt.Errorf("unknown persona %q", id)
}

// SystemInstruction builds the character's full system prompt. The
// knowledge context, when present, is embedded between the personality
// and the behavior rules.
func (p Persona) SystemInstruction(knowledgeContext string) string {
	var b strings.Builder
	b.WriteString(p.personality)

	if knowledgeContext != "" {
		b.WriteString("\n\nKNOWLEDGE BASE (Information from user-uploaded documents):\n")
		b.WriteString(knowledgeContext)
	}

	b.WriteString(`

STRICT RULES:
1. ALWAYS respond in English.
2. Use your tools (listFiles, openBrowser, readFile) whenever the user asks to open something or check files.
3. If asked to open YouTube, use openBrowser with 'https://www.youtube.com'.
4. If the user asks about the uploaded documents, use the Knowledge Base content provided.
5. Keep responses concise and conversational.
6. You are an AI Desktop Buddy.`)

	return b.String()
}
