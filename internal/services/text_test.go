package services_test

import (
	"testing"

	"streamer/internal/services"
)

func TestNormalizeTextComposesAndCollapses(t *testing.T) {
	decomposed := "Cafe\u0301  au\tlait\n"
	if got := services.NormalizeText(decomposed); got != "Caf\u00e9 au lait" {
		t.Fatalf("NormalizeText = %q", got)
	}
}

func TestNormalizeTextsSkipsBlank(t *testing.T) {
	got := services.NormalizeTexts([]string{" hello ", "  ", "world"})
	if got != "hello world" {
		t.Fatalf("NormalizeTexts = %q", got)
	}
}
