package chatbot

import "testing"

func TestExtractPriority(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"response first", `{"message":"m","respond":"r","response":"a"}`, "a"},
		{"respond second", `{"message":"m","respond":"r"}`, "r"},
		{"message third", `{"message":"m","response":""}`, "m"},
		{"json without reply", `{"ok":true}`, FallbackReply},
		{"non string reply", `{"response":42}`, FallbackReply},
		{"raw text verbatim", "  Hola, ¿qué buscas? ", "  Hola, ¿qué buscas? "},
		{"json array is raw", `["a"]`, `["a"]`},
		{"empty body", "", FallbackReply},
		{"blank body", " \n", FallbackReply},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Extract([]byte(tc.body)); got != tc.want {
				t.Fatalf("Extract(%q) = %q want %q", tc.body, got, tc.want)
			}
		})
	}
}
