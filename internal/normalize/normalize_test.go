package normalize

import (
	"reflect"
	"testing"
)

func defaultRules() []Rule {
	return []Rule{
		{Match: []string{"Котла", "Котлп"}, Replace: "Котлас"},
		{Match: []string{"Полоцк"}, Carrier: "СКС", Replace: "Полоцк, Беларусь"},
		{Match: []string{"Минск"}, Carrier: "СКС", Replace: "Минск, Беларусь"},
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Минск", "минск"},
		{"МИНСК", "минск"},
		{"  Минск ", "минск"},
		{"Великий   Устюг", "великий устюг"},
		{"СКС", " скс "},
		{"Йошкар-Ола", "йошкар-ола"},
	}
	for _, tt := range tests {
		if Key(tt.a) != Key(tt.b) {
			t.Errorf("Key(%q) = %q, Key(%q) = %q; want equal", tt.a, Key(tt.a), tt.b, Key(tt.b))
		}
	}
	if Key("Минск") == Key("Пинск") {
		t.Error("different names must not share a key")
	}
}

func TestKey_composedAndDecomposed(t *testing.T) {
	composed := "Йошкар-Ола"
	decomposed := "\u0418\u0306ошкар-Ола"
	if Key(composed) != Key(decomposed) {
		t.Errorf("NFC forms differ: %q vs %q", Key(composed), Key(decomposed))
	}
}

func TestNormalizer_Point(t *testing.T) {
	n := NewNormalizer(defaultRules())
	tests := []struct {
		name    string
		carrier string
		point   string
		want    string
	}{
		{"misspelling any carrier", "АБВ", "Котлп", "Котлас"},
		{"misspelling other variant", "СКС", "котла", "Котлас"},
		{"misspelling upper case", "АБВ", "КОТЛП", "Котлас"},
		{"canonical untouched", "АБВ", "Котлас", "Котлас"},
		{"scoped rule applies", "СКС", "Минск", "Минск, Беларусь"},
		{"scoped rule any case and spacing", " скс ", "  МИНСК ", "Минск, Беларусь"},
		{"scoped rule second point", "СКС", "полоцк", "Полоцк, Беларусь"},
		{"scoped rule other carrier", "АБВ", "Минск", "Минск"},
		{"other carrier trimmed", "АБВ", "  Минск  ", "Минск"},
		{"unrelated point", "СКС", "Орша", "Орша"},
		{"substring not matched", "АБВ", "Котласский", "Котласский"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Point(tt.carrier, tt.point); got != tt.want {
				t.Errorf("Point(%q, %q) = %q, want %q", tt.carrier, tt.point, got, tt.want)
			}
		})
	}
}

func TestNormalizer_Route(t *testing.T) {
	n := NewNormalizer(defaultRules())
	in := []string{"Полоцк", "Минск"}
	got := n.Route("СКС", in)
	want := []string{"Полоцк, Беларусь", "Минск, Беларусь"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Route() = %q, want %q", got, want)
	}
	if in[0] != "Полоцк" {
		t.Error("Route must not modify its input")
	}
}

func TestNormalizer_firstRuleWins(t *testing.T) {
	n := NewNormalizer([]Rule{
		{Match: []string{"Минск"}, Carrier: "СКС", Replace: "Минск, Беларусь"},
		{Match: []string{"Минск"}, Replace: "Минск (?)"},
	})
	if got := n.Point("СКС", "Минск"); got != "Минск, Беларусь" {
		t.Errorf("scoped rule listed first should win, got %q", got)
	}
	if got := n.Point("АБВ", "Минск"); got != "Минск (?)" {
		t.Errorf("global rule should apply to other carriers, got %q", got)
	}
}

func TestNormalizer_rulesNotRetained(t *testing.T) {
	rules := defaultRules()
	n := NewNormalizer(rules)
	rules[0].Replace = "Изменено"
	rules[0].Match[0] = "Москва"
	if got := n.Point("АБВ", "Котла"); got != "Котлас" {
		t.Errorf("mutating the input rules changed the normalizer: %q", got)
	}
	if got := n.Point("АБВ", "Москва"); got != "Москва" {
		t.Errorf("mutating the input rules changed the normalizer: %q", got)
	}
}

func TestNormalizer_noRules(t *testing.T) {
	n := NewNormalizer(nil)
	if got := n.Point("СКС", " Минск "); got != "Минск" {
		t.Errorf("Point() = %q", got)
	}
}
