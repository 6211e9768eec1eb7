package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10, "...") != "hello" {
		t.Error("short string unchanged")
	}
	if got := Truncate("hello world", 5, "..."); got != "hello..." {
		t.Errorf("got %s", got)
	}
	if Truncate("x", 0, "...") != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if Truncate("hello", 5, "...") != "hello" {
		t.Error("exact length is not truncated")
	}
}

func TestTruncate_multibyte(t *testing.T) {
	got := Truncate("caféteria", 4, "|")
	if got != "café|" {
		t.Errorf("got %q", got)
	}
}

func TestRuneLen(t *testing.T) {
	if RuneLen("café") != 4 {
		t.Errorf("RuneLen(café) = %d", RuneLen("café"))
	}
	if RuneLen("") != 0 {
		t.Error("empty string has zero runes")
	}
}
