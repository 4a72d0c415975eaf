package prompts

import "strings"

// Template is a prompt pair loaded from a template file.
type Template struct {
	// FileName is the base name of the file the template was loaded from.
	FileName string `json:"-"`

	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

// Rendered is a template with its placeholders filled in.
type Rendered struct {
	System string
	User   string
}

// Render fills {type} and {context} in both prompts.
func (t *Template) Render(typeValue, context string) Rendered {
	values := map[string]string{
		"type":    typeValue,
		"context": context,
	}
	return Rendered{
		System: Format(t.SystemPrompt, values),
		User:   Format(t.UserPrompt, values),
	}
}

// Format replaces {name} placeholders with values. Placeholders without a
// value are left as written; "{{" and "}}" produce literal braces.
func Format(text string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexAny(text[i+1:], "{}")
			if end < 0 || text[i+1+end] != '}' {
				b.WriteByte(c)
				continue
			}
			name := text[i+1 : i+1+end]
			if v, ok := values[name]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(text[i : i+2+end])
			}
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
