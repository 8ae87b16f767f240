package shaper

import "testing"

func TestShape(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     string
	}{
		{
			name:     "within limit is unchanged",
			text:     "  hola  ",
			maxWords: 3,
			want:     "  hola  ",
		},
		{
			name:     "exact limit is unchanged",
			text:     "uno dos tres.",
			maxWords: 3,
			want:     "uno dos tres.",
		},
		{
			name:     "no punctuation in span",
			text:     "one two three four five.",
			maxWords: 3,
			want:     "one two three...",
		},
		{
			name:     "sentence mark in final 40 percent",
			text:     "Vamos a ver eso. Luego te cuento más cosas",
			maxWords: 5,
			want:     "Vamos a ver eso.",
		},
		{
			name:     "question mark in final 40 percent",
			text:     "¿Quieres que abra Google? Dime y lo hago",
			maxWords: 5,
			want:     "¿Quieres que abra Google?",
		},
		{
			name:     "sentence mark too early",
			text:     "Hola amigo. Hoy hace sol y mucho calor",
			maxWords: 5,
			want:     "Hola amigo. Hoy hace sol...",
		},
		{
			name:     "comma in final 30 percent",
			text:     "Uno dos tres cuatro cinco, seis siete",
			maxWords: 6,
			want:     "Uno dos tres cuatro cinco...",
		},
		{
			name:     "trailing punctuation stripped",
			text:     "Esto es un texto; largo y tedioso",
			maxWords: 4,
			want:     "Esto es un texto...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Shape(tt.text, tt.maxWords); got != tt.want {
				t.Errorf("Shape(%q, %d) = %q, want %q", tt.text, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestShapeDefaultLimit(t *testing.T) {
	text := ""
	for i := 0; i < DefaultMaxWords; i++ {
		text += "palabra "
	}
	if got := Shape(text, 0); got != text {
		t.Errorf("expected text at default limit to be unchanged")
	}
	if got := Shape(text+"extra", 0); got == text+"extra" {
		t.Errorf("expected text over default limit to be cut")
	}
}

func TestStripSymbols(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hola 😂 amigo 🎵", "Hola amigo"},
		{"¿Qué tal? ñandú", "¿Qué tal? ñandú"},
		{"♪♪", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripSymbols(tt.in); got != tt.want {
			t.Errorf("StripSymbols(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShaper(t *testing.T) {
	s := New(3)
	if got := s.Shape("😄 uno dos tres cuatro"); got != "uno dos tres..." {
		t.Errorf("got %q", got)
	}

	raw := Shaper{MaxWords: 3}
	if got := raw.Shape("😄 uno"); got != "😄 uno" {
		t.Errorf("expected symbols kept when stripping is off, got %q", got)
	}
}
