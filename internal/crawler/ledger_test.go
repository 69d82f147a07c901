package crawler

import (
	"testing"

	"recipecrawler/internal/recipe"
)

func TestLedgerAdd(t *testing.T) {
	t.Parallel()

	tacos := recipe.Record{
		Name:         "Tacos",
		Ingredients:  []string{"tortillas", "beef"},
		Instructions: []string{"cook", "assemble"},
		URL:          "https://www.example.com/recipes/tacos",
	}

	t.Run("accepts distinct records in order", func(t *testing.T) {
		l := &Ledger{}
		pizza := recipe.Record{Name: "Pizza", URL: "https://www.example.com/recipes/pizza"}

		if !l.Add(tacos, "<html>tacos</html>") {
			t.Error("first record should be accepted")
		}
		if !l.Add(pizza, "<html>pizza</html>") {
			t.Error("distinct record should be accepted")
		}
		if l.Len() != 2 {
			t.Fatalf("got Len=%d, expected 2", l.Len())
		}
		if l.Records()[0].Name != "Tacos" || l.Records()[1].Name != "Pizza" {
			t.Errorf("insertion order not preserved: %v", l.Records())
		}
		if len(l.Pages()) != 2 || l.Pages()[0] != "<html>tacos</html>" {
			t.Errorf("page HTML not kept alongside records")
		}
	})

	t.Run("rejects record with duplicate URL", func(t *testing.T) {
		l := &Ledger{}
		l.Add(tacos, "")

		dup := recipe.Record{Name: "Renamed Tacos", URL: tacos.URL}
		if l.Add(dup, "") {
			t.Error("record with an already-seen URL should be rejected")
		}
		if l.Len() != 1 {
			t.Errorf("got Len=%d, expected 1", l.Len())
		}
	})

	t.Run("rejects record with duplicate content", func(t *testing.T) {
		l := &Ledger{}
		l.Add(tacos, "")

		dup := tacos
		dup.URL = "https://www.example.com/print/tacos"
		if l.Add(dup, "") {
			t.Error("record with identical name+instructions+ingredients should be rejected")
		}
	})
}

func TestLedgerFindSimilar(t *testing.T) {
	t.Parallel()

	l := &Ledger{}
	if l.FindSimilar(recipe.Record{Name: "Anything"}) != -1 {
		t.Error("empty ledger should find nothing")
	}

	l.Add(recipe.Record{Name: "A", URL: "https://www.example.com/a"}, "")
	l.Add(recipe.Record{Name: "B", URL: "https://www.example.com/b"}, "")

	if got := l.FindSimilar(recipe.Record{Name: "X", URL: "https://www.example.com/b"}); got != 1 {
		t.Errorf("got index %d, expected 1", got)
	}
}
