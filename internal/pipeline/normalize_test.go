package pipeline

import (
	"reflect"
	"testing"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jiří", "Jiri"},
		{"Petr Novák", "Petr Novak"},
		{"Žofie Čermáková", "Zofie Cermakova"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := RemoveDiacritics(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSortNames(t *testing.T) {
	names := []string{"Šimon Malý", "anna", "Petr Novák", "Jiří"}
	SortNames(names)

	expected := []string{"anna", "Jiří", "Petr Novák", "Šimon Malý"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
}
