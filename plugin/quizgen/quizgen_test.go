package quizgen

import (
	"reflect"
	"strings"
	"testing"
)

func TestGenerateDefinitionScenario(t *testing.T) {
	items := Generate("光合成とは、植物が光エネルギーを使って栄養を作る過程である。", nil)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Type != TypeTerm || !strings.Contains(items[0].Question, "光合成") {
		t.Errorf("first item = %+v, want a term question about 光合成", items[0])
	}
	if items[1].Type != TypeFill || items[1].Answer != "光合成" {
		t.Errorf("second item = %+v, want a fill item answered by the term", items[1])
	}
	for _, item := range items {
		if item.Type == TypeTrueFalse {
			t.Errorf("no-op antonym replacement must not yield a true/false item: %+v", item)
		}
		if item.SourceLine == nil || *item.SourceLine != 1 {
			t.Errorf("item %q should carry source line 1", item.Question)
		}
	}
}

func TestGenerateNeverEmptyForMinimalSentence(t *testing.T) {
	items := Generate("相対速度とは、二つの物体の速度の差である。", nil)
	if len(items) == 0 {
		t.Fatal("result must not be empty for a minimal definition sentence")
	}
	found := false
	for _, item := range items {
		if item.Type == TypeFill && item.Answer != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("want at least one fill item with a non-empty answer, got %+v", items)
	}
}

func TestGenerateFallback(t *testing.T) {
	items := Generate("この文章には定義のパターンが一つも含まれていないので候補は出ない。", nil)
	if len(items) != 1 {
		t.Fatalf("got %d items, want the single fallback item: %+v", len(items), items)
	}
	item := items[0]
	if item.Type != TypeFill {
		t.Errorf("type = %s, want fill", item.Type)
	}
	if !strings.HasSuffix(item.Question, blankMarker) {
		t.Errorf("question %q missing blank marker", item.Question)
	}
	if item.Answer == "" {
		t.Errorf("fallback answer must not be empty")
	}
	if item.SourceLine != nil {
		t.Errorf("fallback item must not carry a source line, got %d", *item.SourceLine)
	}
}

func TestGenerateHeadingPropagation(t *testing.T) {
	body := strings.Join([]string{
		"# 第1章",
		"慣性とは、外力がなければ運動状態が保たれる性質である。",
		"",
		"熱容量とは、物体の温度を1度上げるのに必要な熱量である。",
	}, "\n")
	items := Generate(body, nil)
	if len(items) == 0 {
		t.Fatal("expected items")
	}
	for _, item := range items {
		if !strings.HasPrefix(item.Question, "【第1章】") {
			t.Errorf("question %q not prefixed with the heading", item.Question)
		}
	}
	lines := map[int]bool{}
	for _, item := range items {
		if item.SourceLine != nil {
			lines[*item.SourceLine] = true
		}
	}
	if !lines[2] || !lines[4] {
		t.Errorf("source lines = %v, want both 2 and 4 present", lines)
	}
}

func TestGenerateLimit(t *testing.T) {
	var b strings.Builder
	terms := []string{"中間試験", "期末試験", "模擬試験", "追試験", "夏期講習", "冬期講習", "卒業研究", "定期試験"}
	for _, term := range terms {
		b.WriteString(term + "とは、学生の理解度を測るために行われる評価方法である。\n")
	}
	items := Generate(b.String(), &Options{Limit: 3, MinScore: 3, AllowTrueFalse: true})
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}
}

func TestGenerateDedup(t *testing.T) {
	body := "慣性とは、外力がなければ運動状態が保たれる性質である。\n慣性とは、外力がなければ運動状態が保たれる性質である。"
	items := Generate(body, nil)
	seen := map[string]bool{}
	for _, item := range items {
		key := dedupeKey(item.Question)
		if seen[key] {
			t.Errorf("duplicate normalized question %q", item.Question)
		}
		seen[key] = true
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2 (def and def_blank once each)", len(items))
	}
}

func TestGenerateTrueFalseCap(t *testing.T) {
	body := strings.Join([]string{
		"中間試験とは、学期の途中に実施される重要な試験である。",
		"期末試験とは、学期の最後に実施される重要な試験である。",
		"模擬試験とは、本番の前に練習として受ける重要な試験である。",
		"小テストとは、理解度を確認するために行う重要な試験である。",
		"追試験とは、欠席した学生のために行う重要な試験である。",
	}, "\n")
	items := Generate(body, &Options{Limit: 10, MinScore: 1, AllowTrueFalse: true})
	if len(items) != 10 {
		t.Fatalf("got %d items, want 10", len(items))
	}
	tf := 0
	for _, item := range items {
		if item.Type == TypeTrueFalse {
			tf++
		}
	}
	if tf > 2 {
		t.Errorf("true/false items = %d, want at most floor(10*0.2) = 2", tf)
	}
}

func TestGenerateNoCrash(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t\n   ",
		"```",
		"```go\nfunc main() {}\n",
		"```\n```\n```",
		"\x00\x01\xff\xfe garbage \x80",
		strings.Repeat("あ", 5000),
		"【】「」『』（）",
		"。。。。。。。。",
		strings.Repeat("# ", 300),
		"とはとはとはとはとはとはとはとはとはとは",
	}
	for _, input := range inputs {
		items := Generate(input, nil)
		if len(items) > 20 {
			t.Errorf("limit exceeded for input %q: %d items", input, len(items))
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	body := "# 運動\n慣性とは、外力がなければ運動状態が保たれる性質である。\n- まず観察する\n- 次に記録する\n- 最後に考察する"
	first := Generate(body, nil)
	second := Generate(body, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("generation is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestGenerateNilOptionsMatchesDefaults(t *testing.T) {
	body := "光合成とは、植物が光エネルギーを使って栄養を作る過程である。"
	if !reflect.DeepEqual(Generate(body, nil), Generate(body, DefaultOptions())) {
		t.Errorf("nil options must behave like DefaultOptions")
	}
}

func TestGenerateDisallowTrueFalse(t *testing.T) {
	body := "中間試験とは、学期の途中に実施される重要な試験である。"
	items := Generate(body, &Options{Limit: 4, MinScore: 1, AllowTrueFalse: false})
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	// The flag only disables the cap and priority mechanics; selection is a
	// plain top-by-score cut, so the definition pair leads.
	if items[0].Type != TypeTerm || items[1].Type != TypeFill {
		t.Errorf("leading items = %s,%s; want term,fill by score", items[0].Type, items[1].Type)
	}
}
