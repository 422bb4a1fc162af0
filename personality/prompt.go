package personality

import (
	"fmt"
	"sort"
	"strings"
)

// ResolvePrompt renders the personality's system prompt. Raw variants
// are returned verbatim; template variants render every present field,
// labeled, in a fixed order, so the output is deterministic.
func (r *Registry) ResolvePrompt(id string) (string, error) {
	p, err := r.Get(id)
	if err != nil {
		return "", err
	}

	if p.Type == TypePrompt {
		return p.Prompt, nil
	}

	return renderTemplate(p.Template), nil
}

func renderTemplate(t *Template) string {
	var b strings.Builder

	name := t.Name
	if len(name) == 0 {
		name = "an assistant"
	}
	role := t.Role
	if len(role) == 0 {
		role = "Assistant"
	}

	fmt.Fprintf(&b, "You are %s, %s.\n\n", name, role)

	if len(t.CoreIdentity) > 0 {
		b.WriteString(t.CoreIdentity)
		b.WriteString("\n\n")
	}

	if len(t.CommunicationStyle) > 0 {
		b.WriteString("Communication style:\n")
		writeLabeledMap(&b, t.CommunicationStyle)
		b.WriteString("\n")
	}

	if len(t.AnchorPhrases) > 0 {
		b.WriteString("Use these anchor phrases in your responses:\n")
		for _, phrase := range t.AnchorPhrases {
			fmt.Fprintf(&b, "- %q\n", phrase)
		}
		b.WriteString("\n")
	}

	if len(t.BehavioralGuidelines) > 0 {
		b.WriteString("Guidelines for your responses:\n")
		writeLabeledMap(&b, t.BehavioralGuidelines)
		b.WriteString("\n")
	}

	if len(t.ExampleResponses) > 0 {
		b.WriteString("Examples of your typical responses:\n")
		for _, example := range t.ExampleResponses {
			fmt.Fprintf(&b, "- %q\n", example)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeLabeledMap(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %s\n", label(k), m[k])
	}
}

// label turns snake_case field names into title-cased labels.
func label(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if len(w) == 0 {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
