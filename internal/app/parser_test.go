package app

import (
	"testing"
)

var parserSeries = []string{"Bluey", "Puffin Rock", "Hilda", "Sarah & Duck"}

func TestParseRequestTextSimple(t *testing.T) {
	got, err := ParseRequestText("two bluey episodes tomorrow", parserSeries, nil)
	if err != nil {
		t.Fatalf("ParseRequestText: %v", err)
	}
	if got.DaysOffset != 1 {
		t.Fatalf("DaysOffset = %d, want 1 (tomorrow)", got.DaysOffset)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(got.Items))
	}
	if it := got.Items[0]; it.Series != "Bluey" || it.Count != 2 {
		t.Fatalf("item = %+v, want 2x Bluey", it)
	}
}

func TestParseRequestTextMultipleParts(t *testing.T) {
	got, err := ParseRequestText("2 bluey and one puffin rock", parserSeries, nil)
	if err != nil {
		t.Fatalf("ParseRequestText: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if it := got.Items[0]; it.Series != "Bluey" || it.Count != 2 {
		t.Fatalf("first item = %+v, want 2x Bluey", it)
	}
	if it := got.Items[1]; it.Series != "Puffin Rock" || it.Count != 1 {
		t.Fatalf("second item = %+v, want 1x Puffin Rock", it)
	}
}

func TestParseRequestTextFuzzyMatch(t *testing.T) {
	got, err := ParseRequestText("one blueie", parserSeries, nil)
	if err != nil {
		t.Fatalf("ParseRequestText: %v", err)
	}
	if got.Items[0].Series != "Bluey" {
		t.Fatalf("series = %q, want fuzzy match Bluey", got.Items[0].Series)
	}
}

func TestParseRequestTextKeywordMap(t *testing.T) {
	got, err := ParseRequestText("three duck show", parserSeries, map[string]string{"duck show": "Sarah & Duck"})
	if err != nil {
		t.Fatalf("ParseRequestText: %v", err)
	}
	if it := got.Items[0]; it.Series != "Sarah & Duck" || it.Count != 3 {
		t.Fatalf("item = %+v, want 3x Sarah & Duck", it)
	}
}

func TestParseRequestTextUnknownSeries(t *testing.T) {
	if _, err := ParseRequestText("two paw patrol", parserSeries, nil); err == nil {
		t.Fatal("expected an error for an unknown series")
	}
}

func TestParseRequestTextEmpty(t *testing.T) {
	if _, err := ParseRequestText("   ", parserSeries, nil); err == nil {
		t.Fatal("expected an error for empty text")
	}
}
