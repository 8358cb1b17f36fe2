package media

import "testing"

func TestParseAudioFormat(t *testing.T) {
	cases := map[string]AudioFormat{
		"wav":   FormatWAV,
		".WAV":  FormatWAV,
		" flac": FormatFLAC,
		"ogg":   FormatOGG,
	}
	for input, want := range cases {
		got, err := ParseAudioFormat(input)
		if err != nil {
			t.Fatalf("ParseAudioFormat(%q) error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseAudioFormat(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := ParseAudioFormat("opus"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestBaseName(t *testing.T) {
	audio := &AudioData{Name: "1700000000.wav"}
	if got := audio.BaseName(); got != "1700000000" {
		t.Fatalf("unexpected base name %q", got)
	}
	var missing *AudioData
	if got := missing.BaseName(); got != "" {
		t.Fatalf("expected empty base name for nil audio, got %q", got)
	}
}

func TestNameTables(t *testing.T) {
	if len(BlendShapeNames) != 71 {
		t.Fatalf("expected 71 blend shapes, got %d", len(BlendShapeNames))
	}
	if len(Emotions) != 11 {
		t.Fatalf("expected 11 emotions, got %d", len(Emotions))
	}
}
