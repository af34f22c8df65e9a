package listing

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type film struct {
	Title string
	Alias string
}

func filmFields(f film) []string { return []string{f.Title, f.Alias} }

func films(n int) []film {
	out := make([]film, n)
	for i := range out {
		out[i] = film{Title: fmt.Sprintf("Film %02d", i+1), Alias: fmt.Sprintf("film-%02d", i+1)}
	}
	return out
}

func TestFilterCaseInsensitive(t *testing.T) {
	items := []film{
		{Title: "Avengers: Endgame", Alias: "avengers-endgame"},
		{Title: "Lật Mặt 7", Alias: "lat-mat-7"},
		{Title: "Dune", Alias: "dune-part-two"},
	}

	assert.Len(t, Filter(items, "AVENGERS", filmFields), 1)
	assert.Len(t, Filter(items, "part", filmFields), 1)
	assert.Len(t, Filter(items, "lật", filmFields), 1)
	assert.Len(t, Filter(items, "  ", filmFields), 3)
	assert.Empty(t, Filter(items, "matrix", filmFields))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		wantPage   int
		wantItems  int
		wantPages  int
		firstTitle string
	}{
		{"first page", 25, 1, 1, 10, 3, "Film 01"},
		{"last partial page", 25, 3, 3, 5, 3, "Film 21"},
		{"page beyond end is clamped", 25, 9, 3, 5, 3, "Film 21"},
		{"page below one is clamped", 25, 0, 1, 10, 3, "Film 01"},
		{"empty collection", 0, 2, 1, 0, 1, ""},
		{"exact multiple", 20, 2, 2, 10, 2, "Film 11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(films(tt.total), tt.page, 10)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Len(t, p.Items, tt.wantItems)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalItems)
			if tt.firstTitle != "" {
				assert.Equal(t, tt.firstTitle, p.Items[0].Title)
			}
		})
	}
}

func TestStateSetQueryResetsPage(t *testing.T) {
	st := State{Query: "film", Page: 3}

	st.SetQuery("film")
	assert.Equal(t, 3, st.Page, "same filter keeps the page")

	st.SetQuery("film 2")
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, "film 2", st.Query)

	st.SetPage(-4)
	assert.Equal(t, 1, st.Page)
}

func TestParseState(t *testing.T) {
	assert.Equal(t, State{Query: "", Page: 2}, ParseState("", "", "2"))
	assert.Equal(t, State{Query: "dune", Page: 2}, ParseState("dune", "dune", "2"))
	assert.Equal(t, State{Query: "dune", Page: 1}, ParseState("dune", "", "2"))
	assert.Equal(t, State{Query: "", Page: 1}, ParseState("", "dune", "4"))
	assert.Equal(t, State{Query: "x", Page: 1}, ParseState("x", "x", "abc"))
}

func TestStateFromQuery(t *testing.T) {
	parse := func(raw string) State {
		v, err := url.ParseQuery(raw)
		require.NoError(t, err)
		return StateFromQuery(v)
	}

	assert.Equal(t, State{Query: "x", Page: 2}, parse("q=x&page=2"))
	assert.Equal(t, State{Query: "x", Page: 2}, parse("q=x&prev_q=x&page=2"))
	assert.Equal(t, State{Query: "x", Page: 1}, parse("q=x&prev_q=y&page=2"))
	assert.Equal(t, State{Query: "x", Page: 1}, parse("q=x&prev_q=&page=2"))
	assert.Equal(t, State{Query: "", Page: 3}, parse("page=3"))
}

func TestApply(t *testing.T) {
	p := Apply(films(30), State{Query: "film 1", Page: 1}, 10, filmFields)

	assert.Equal(t, "film 1", p.Query)
	assert.Equal(t, 10, p.TotalItems)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, "Film 10", p.Items[0].Title)
}
