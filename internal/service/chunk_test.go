package service

import (
	"strings"
	"testing"

	"github.com/parley/parley-go/internal/model"
)

func TestChunkWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []string
	}{
		{name: "empty", text: "", n: 3, want: nil},
		{name: "whitespace only", text: " \n\t", n: 3, want: []string{" \n\t"}},
		{name: "fewer words than group", text: "Hi there", n: 3, want: []string{"Hi there"}},
		{
			name: "groups of three",
			text: "Hello world, how are you today?",
			n:    3,
			want: []string{"Hello world, how ", "are you today?"},
		},
		{
			name: "leading and trailing whitespace",
			text: "  one two three four  ",
			n:    3,
			want: []string{"  one two three ", "four  "},
		},
		{
			name: "newlines preserved",
			text: "line one\n\nline two\n",
			n:    2,
			want: []string{"line one\n\n", "line two\n"},
		},
		{name: "group of one", text: "a b c", n: 1, want: []string{"a ", "b ", "c"}},
		{name: "non-positive group", text: "a b", n: 0, want: []string{"a ", "b"}},
		{name: "multibyte words", text: "héllo wörld ünïcode ok", n: 2, want: []string{"héllo wörld ", "ünïcode ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkWords(tt.text, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("chunkWords() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if strings.Join(got, "") != tt.text {
				t.Errorf("chunks do not reassemble: %q", strings.Join(got, ""))
			}
		})
	}
}

func TestChunkWordsNeverSplitsWords(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog and keeps running far away"
	for _, chunk := range chunkWords(text, 3) {
		if n := len(strings.Fields(chunk)); n != 3 && !strings.HasSuffix(text, chunk) {
			t.Errorf("chunk %q has %d words, want 3", chunk, n)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "Hello"},
		{Role: model.RoleAssistant, Content: "Hi!"},
		{Role: model.RoleUser, Content: "How are you?"},
	}

	want := "user: Hello\nassistant: Hi!\nuser: How are you?"
	if got := buildPrompt(msgs); got != want {
		t.Errorf("buildPrompt() = %q, want %q", got, want)
	}
	if got := buildPrompt(nil); got != "" {
		t.Errorf("buildPrompt(nil) = %q, want empty", got)
	}
}
