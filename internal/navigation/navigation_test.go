package navigation

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		hash string
		want Route
	}{
		{"", Route{Page: PageHome}},
		{"#", Route{Page: PageHome}},
		{"#home", Route{Page: PageHome}},
		{"#featured", Route{Page: PageHome}},
		{"#unknown", Route{Page: PageHome}},
		{"#catalog", Route{Page: PageCatalog}},
		{"catalog?search=tom%20ford", Route{Page: PageCatalog, Search: "tom ford"}},
		{"#catalog?search=creed&x=1", Route{Page: PageCatalog, Search: "creed"}},
		{"#contact", Route{Page: PageContact}},
		{"#blog", Route{Page: PageBlog}},
		{"#CATALOG", Route{Page: PageHome}},
	}
	for _, tc := range cases {
		if got := Parse(tc.hash); got != tc.want {
			t.Fatalf("Parse(%q) = %+v want %+v", tc.hash, got, tc.want)
		}
	}
}

func TestCatalogSearchOnlyForCatalog(t *testing.T) {
	if got := CatalogSearch("#catalog?search=mancera"); got != "mancera" {
		t.Fatalf("unexpected search %q", got)
	}
	if got := CatalogSearch("#blog?search=mancera"); got != "" {
		t.Fatalf("expected no catalog search from blog hash, got %q", got)
	}
}

func TestHashRoundTrip(t *testing.T) {
	r := Route{Page: PageCatalog, Search: "tom ford"}
	if got := Parse(r.Hash()); got != r {
		t.Fatalf("round trip mismatch %+v", got)
	}
	if got := (Route{}).Hash(); got != "#home" {
		t.Fatalf("unexpected empty route hash %q", got)
	}
}
