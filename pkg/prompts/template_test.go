package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormat(t *testing.T) {
	values := map[string]string{"type": "invoice", "context": "total: 42"}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"both placeholders", "A {type}: {context}", "A invoice: total: 42"},
		{"unknown placeholder kept", "{type} for {customer}", "invoice for {customer}"},
		{"escaped braces", "{{type}} is {type}", "{type} is invoice"},
		{"unclosed brace", "open { brace {type}", "open { brace invoice"},
		{"trailing brace", "end {", "end {"},
		{"empty placeholder kept", "x {} y", "x {} y"},
		{"no placeholders", "plain", "plain"},
		{"repeated", "{type}{type}", "invoiceinvoice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.text, values)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTemplate_Render(t *testing.T) {
	tmpl := &Template{
		SystemPrompt: "You describe {type} files.",
		UserPrompt:   "Describe:\n{context}\n{extra}",
	}

	got := tmpl.Render("image", "a cat")
	if got.System != "You describe image files." {
		t.Errorf("unexpected system prompt %q", got.System)
	}
	if got.User != "Describe:\na cat\n{extra}" {
		t.Errorf("unexpected user prompt %q", got.User)
	}
}

func TestRepository(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write("b.txt", `{"name":"B","system_prompt":"s","user_prompt":"u"}`)
	write("a.txt", `{"name":"A","system_prompt":"","user_prompt":"{context}"}`)
	write("broken.txt", `{not json`)
	write("partial.txt", `{"name":"P","system_prompt":"s"}`)
	write("ignored.json", `{"name":"J","system_prompt":"s","user_prompt":"u"}`)

	repo, err := NewRepository(dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list := repo.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(list))
	}
	if list[0].FileName != "a.txt" || list[1].FileName != "b.txt" {
		t.Errorf("unexpected order: %s, %s", list[0].FileName, list[1].FileName)
	}

	tmpl, ok := repo.Get("a.txt")
	if !ok {
		t.Fatal("expected a.txt to be loaded")
	}
	if tmpl.Name != "A" {
		t.Errorf("expected name %q, got %q", "A", tmpl.Name)
	}

	write("c.txt", `{"name":"C","system_prompt":"s","user_prompt":"u"}`)
	if err := repo.Reload(); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}
	if _, ok := repo.Get("c.txt"); !ok {
		t.Error("expected c.txt after reload")
	}
}

func TestRepository_MissingDirectory(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.List()) != 0 {
		t.Error("expected no templates")
	}
}
