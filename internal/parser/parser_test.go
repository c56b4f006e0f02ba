package parser

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSplitPoints(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  []string
	}{
		{"canonical arrow", "Москва → Котлас → Вологда", []string{"Москва", "Котлас", "Вологда"}},
		{"ascii arrow spaced", "Москва -> Тверь", []string{"Москва", "Тверь"}},
		{"ascii arrow tight", "Москва->Тверь", []string{"Москва", "Тверь"}},
		{"em dash", "Москва—Тверь", []string{"Москва", "Тверь"}},
		{"em dash spaced", "Москва — Тверь", []string{"Москва", "Тверь"}},
		{"en dash spaced", "Москва – Тверь", []string{"Москва", "Тверь"}},
		{"spaced hyphen", "Москва - Тверь - Клин", []string{"Москва", "Тверь", "Клин"}},
		{"nbsp hyphen", "Москва\u00a0-\u00a0Тверь", []string{"Москва", "Тверь"}},
		{"hyphenated name kept", "Ростов-на-Дону → Санкт-Петербург", []string{"Ростов-на-Дону", "Санкт-Петербург"}},
		{"mixed delimiters", "Москва -> Тверь — Клин – Дмитров - Дубна", []string{"Москва", "Тверь", "Клин", "Дмитров", "Дубна"}},
		{"empty tokens dropped", "→ Москва →→ Тверь →", []string{"Москва", "Тверь"}},
		{"single point", "Москва", []string{"Москва"}},
		{"whitespace only", "   ", nil},
		{"empty", "", nil},
		{"tokens trimmed", "  Москва   →   Тверь  ", []string{"Москва", "Тверь"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPoints(tt.entry)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitPoints(%q) = %q, want %q", tt.entry, got, tt.want)
			}
		})
	}
}

func TestSplitPoints_joinRoundTrip(t *testing.T) {
	lists := [][]string{
		{"Москва", "Котлас"},
		{"Минск, Беларусь", "Орша", "Полоцк, Беларусь"},
		{"Ростов-на-Дону", "Нижний Новгород", "Великий  Устюг"},
		{"A", "B", "C", "D", "E"},
	}
	for _, pts := range lists {
		joined := JoinPoints(pts)
		got := SplitPoints(joined)
		if !reflect.DeepEqual(got, pts) {
			t.Errorf("SplitPoints(JoinPoints(%q)) = %q", pts, got)
		}
	}
}

func TestJoinPoints(t *testing.T) {
	if got := JoinPoints([]string{"Москва", "Котлас", "Вологда"}); got != "Москва → Котлас → Вологда" {
		t.Errorf("JoinPoints() = %q", got)
	}
	if got := JoinPoints(nil); got != "" {
		t.Errorf("JoinPoints(nil) = %q", got)
	}
}

func TestParser_SplitRoutes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want [][]string
	}{
		{
			name: "single route",
			raw:  "Москва → Котлп → Вологда",
			want: [][]string{{"Москва", "Котлп", "Вологда"}},
		},
		{
			name: "newline separated",
			raw:  "Минск → Орша\nПолоцк → Минск",
			want: [][]string{{"Минск", "Орша"}, {"Полоцк", "Минск"}},
		},
		{
			name: "semicolon pipe and crlf",
			raw:  "A → B; C → D | E → F\r\nG → H",
			want: [][]string{{"A", "B"}, {"C", "D"}, {"E", "F"}, {"G", "H"}},
		},
		{
			name: "repeated separators",
			raw:  "A → B;;\n\n||C → D",
			want: [][]string{{"A", "B"}, {"C", "D"}},
		},
		{
			name: "short entries dropped",
			raw:  "ежедневно\nA → B\nпо запросу;C",
			want: [][]string{{"A", "B"}},
		},
		{
			name: "wide gap before new sequence",
			raw:  "Москва → Тверь  Казань → Уфа",
			want: [][]string{{"Москва", "Тверь"}, {"Казань", "Уфа"}},
		},
		{
			name: "wide gap before glued arrow",
			raw:  "Москва → Тверь   Казань→Уфа → Пермь",
			want: [][]string{{"Москва", "Тверь"}, {"Казань", "Уфа", "Пермь"}},
		},
		{
			name: "wide gap inside a trailing name is kept",
			raw:  "Котлас → Великий  Устюг",
			want: [][]string{{"Котлас", "Великий  Устюг"}},
		},
		{
			name: "wide gap inside a leading name mis-splits",
			raw:  "Великий  Устюг → Котлас",
			want: [][]string{{"Устюг", "Котлас"}},
		},
		{
			name: "wide gap around arrow is not a split",
			raw:  "Москва  →  Тверь",
			want: [][]string{{"Москва", "Тверь"}},
		},
		{
			name: "wide gap before dash sequence is not a split",
			raw:  "Москва → Тверь  Казань - Уфа",
			want: [][]string{{"Москва", "Тверь  Казань", "Уфа"}},
		},
		{
			name: "blank",
			raw:  " \n ; ",
			want: nil,
		},
		{
			name: "information separators count as a wide gap",
			raw:  "Москва → Тверь\x1c\x1cКазань → Уфа",
			want: [][]string{{"Москва", "Тверь"}, {"Казань", "Уфа"}},
		},
		{
			name: "information separators are trimmed",
			raw:  "\x1fМосква\x1e→ Тверь\x1d-\x1fКлин\x1c",
			want: [][]string{{"Москва", "Тверь", "Клин"}},
		},
	}
	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.SplitRoutes(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitRoutes(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			for _, pts := range got {
				if len(pts) < MinPoints {
					t.Errorf("route with %d points emitted: %q", len(pts), pts)
				}
			}
		})
	}
}

func TestParser_SplitRoutesLogsHeuristic(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := NewParser(WithLogger(zap.New(core)))
	p.SplitRoutes("Москва → Тверь  Казань → Уфа  Омск", zap.String("sheet", "Запад"), zap.Int("row", 7))
	found := false
	for _, e := range logs.All() {
		if strings.Contains(e.Message, "re-split") {
			found = true
		}
		fields := e.ContextMap()
		if fields["sheet"] != "Запад" || fields["row"] != int64(7) {
			t.Errorf("%q logged without the cell position: %v", e.Message, fields)
		}
	}
	if !found {
		t.Error("expected a debug entry for the wide-gap split")
	}
	if n := logs.FilterMessage("entry discarded").Len(); n != 0 {
		t.Errorf("discarded %d entries, want 0", n)
	}
}

func TestSplitConcatenated(t *testing.T) {
	tests := []struct {
		entry string
		want  []string
	}{
		{"A → B  C → D", []string{"A → B", "C → D"}},
		{"A → B\t\tC→D", []string{"A → B", "C→D"}},
		{"A → B  C  → D", []string{"A → B", "C  → D"}},
		{"A → B  C D → E", []string{"A → B  C D → E"}},
		{"A → B", []string{"A → B"}},
		{"A  B", []string{"A  B"}},
		{"A → B\x1c\x1cC → D", []string{"A → B", "C → D"}},
	}
	for _, tt := range tests {
		got := splitConcatenated(tt.entry)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitConcatenated(%q) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}
