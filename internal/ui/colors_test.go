package ui

import (
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	out := Table([]string{"Playlist", "Added"}, [][]string{{"Road Trip", "12"}, {"Liked Songs", "240"}})

	for _, want := range []string{"Playlist", "Added", "Road Trip", "Liked Songs", "240"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) < 4 {
		t.Errorf("expected a bordered table, got %d lines", len(lines))
	}
}

func TestStyles(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"Title": Title, "OK": OK, "Err": Err, "Warn": Warn, "Help": Help,
	} {
		t.Run(name, func(t *testing.T) {
			if got := fn("text"); !strings.Contains(got, "text") {
				t.Errorf("%s() = %q", name, got)
			}
		})
	}
}
