package post

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Leading and Trailing  ", "leading-and-trailing"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"UPPER case 123", "upper-case-123"},
		// 空白以外の文字は記号も含めてそのまま残る
		{"Hello, World!", "hello,-world!"},
		{"Go 1.25 リリース", "go-1.25-リリース"},
		// 非ASCIIタイトルも潰さない
		{"日本語 タイトル", "日本語-タイトル"},
		{"日本語タイトル", "日本語タイトル"},
		// タブや改行も空白として扱う
		{"tab\tand\nnewline", "tab-and-newline"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
