package catalog

import (
	"testing"

	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/season"
)

func TestEveryCategoryHasAdvice(t *testing.T) {
	for _, category := range bodyshape.Categories {
		entry, ok := Body(category)
		if !ok {
			t.Fatalf("missing body advice for %s", category)
		}
		if entry.Kind != KindBody || len(entry.Recommendations) == 0 || len(entry.Avoid) == 0 {
			t.Fatalf("incomplete body advice for %s: %+v", category, entry)
		}
	}

	for _, category := range season.Categories {
		entry, ok := Season(category)
		if !ok {
			t.Fatalf("missing season advice for %s", category)
		}
		if len(entry.Palette) != len(entry.ColorNames) || len(entry.Makeup) == 0 {
			t.Fatalf("incomplete season advice for %s: %+v", category, entry)
		}
	}
}

func TestUnresolvedHasNoAdvice(t *testing.T) {
	if _, ok := Body(bodyshape.Unresolved); ok {
		t.Fatal("unresolved body shape must not have advice")
	}
	if _, ok := Season(season.Unresolved); ok {
		t.Fatal("unresolved season must not have advice")
	}
}

func TestDefaultsReturnsCopy(t *testing.T) {
	entries := Defaults()
	if len(entries) != len(bodyshape.Categories)+len(season.Categories) {
		t.Fatalf("unexpected entry count %d", len(entries))
	}
	entries[0].Name = "changed"
	if Defaults()[0].Name == "changed" {
		t.Fatal("Defaults must not expose the backing slice")
	}
}
