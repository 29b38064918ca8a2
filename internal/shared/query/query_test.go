package query

import (
	"math"
	"regexp"
	"testing"
)

func TestNewPageClamps(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-3, 5, 1, 5},
		{2, 500, 2, 100},
		{3, 10, 3, 10},
		{math.MaxInt, 10, MaxPage, 10},
	}
	for _, tc := range cases {
		got := NewPage(tc.page, tc.limit)
		if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
			t.Fatalf("NewPage(%d, %d) = %+v", tc.page, tc.limit, got)
		}
	}
}

func TestParsePageDefaults(t *testing.T) {
	p := ParsePage("abc", "")
	if p.Page != 1 || p.Limit != 10 || p.Offset() != 0 {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if off := ParsePage("3", "20").Offset(); off != 40 {
		t.Fatalf("expected offset 40, got %d", off)
	}
}

func TestParsePageHugePageKeepsOffsetPositive(t *testing.T) {
	p := ParsePage("9223372036854775807", "100")
	if p.Page != MaxPage {
		t.Fatalf("expected page clamped to %d, got %d", MaxPage, p.Page)
	}
	if off := p.Offset(); off <= 0 || off > math.MaxInt-p.Limit {
		t.Fatalf("unexpected offset %d", off)
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	if got := LikePattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestMongoContainsIsLiteral(t *testing.T) {
	re := MongoContains("a.b(")
	if re.Options != "i" {
		t.Fatalf("expected case-insensitive option, got %q", re.Options)
	}
	compiled := regexp.MustCompile(re.Pattern)
	if compiled.MatchString("axb(") || !compiled.MatchString("xa.b(y") {
		t.Fatalf("pattern %q is not literal", re.Pattern)
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Asha RAO", "rao") {
		t.Fatal("expected case-insensitive match")
	}
	if !ContainsFold("Rue de l'École", "ÉCOLE") {
		t.Fatal("expected unicode folding match")
	}
	if ContainsFold("Mumbai", "Pune") {
		t.Fatal("unexpected match")
	}
}
