package content

import (
	"fmt"
	"testing"
)

func TestAlignPairsByPosition(t *testing.T) {
	source := &Extraction{
		Title:           "Welcome",
		MetaDescription: "Shop online",
		Headings: []Heading{
			{Level: 1, Text: "Big Sale"},
			{Level: 2, Text: "New Arrivals"},
		},
		Paragraphs: []string{"First paragraph", "Second paragraph", "Third paragraph"},
		Buttons:    []string{"Buy now"},
		Links:      []Link{{Text: "Contact", Href: "/contact"}},
		Images:     []Image{{Alt: "Red shoes", Src: "/shoes.jpg"}},
	}
	target := &Extraction{
		Title: "환영합니다",
		Headings: []Heading{
			{Level: 1, Text: "빅 세일"},
		},
		Paragraphs: []string{"첫 번째 문단", "두 번째 문단"},
		Buttons:    []string{"지금 구매"},
		Links:      []Link{{Text: "문의하기", Href: "/ko/contact"}},
		Images:     []Image{{Alt: "빨간 신발", Src: "/ko/shoes.jpg"}},
	}

	pairs := Align(source, target)

	if *pairs.Title.Source != "Welcome" || *pairs.Title.Target != "환영합니다" {
		t.Errorf("Title = %+v", pairs.Title)
	}
	if *pairs.MetaDescription.Source != "Shop online" {
		t.Errorf("MetaDescription.Source = %v", pairs.MetaDescription.Source)
	}
	if pairs.MetaDescription.Target != nil {
		t.Error("MetaDescription.Target should be nil when the target page has none")
	}

	if len(pairs.Headings) != 2 {
		t.Fatalf("Headings = %d, want the longer side's length", len(pairs.Headings))
	}
	if pairs.Headings[1].Target != nil {
		t.Error("second heading has no target side")
	}
	if pairs.Headings[0].Level != 1 {
		t.Errorf("Headings[0].Level = %d", pairs.Headings[0].Level)
	}

	if len(pairs.Paragraphs) != 3 {
		t.Fatalf("Paragraphs = %d", len(pairs.Paragraphs))
	}
	if pairs.Paragraphs[2].Source == nil || pairs.Paragraphs[2].Target != nil {
		t.Errorf("Paragraphs[2] = %+v, want source-only", pairs.Paragraphs[2])
	}
	for i, p := range pairs.Paragraphs {
		if p.Index != i {
			t.Errorf("Paragraphs[%d].Index = %d", i, p.Index)
		}
	}

	if len(pairs.Images) != 1 || pairs.Images[0].Src != "/shoes.jpg" {
		t.Errorf("Images = %+v, want source src kept", pairs.Images)
	}
}

func TestAlignCapsLongSides(t *testing.T) {
	source := &Extraction{}
	for i := 0; i < maxParagraphs+10; i++ {
		source.Paragraphs = append(source.Paragraphs, fmt.Sprintf("paragraph %d", i))
	}

	pairs := Align(source, &Extraction{})
	if len(pairs.Paragraphs) != maxParagraphs {
		t.Errorf("Paragraphs = %d, want cap %d", len(pairs.Paragraphs), maxParagraphs)
	}
}

func TestAlignNeverEmitsEmptyStrings(t *testing.T) {
	source := &Extraction{Paragraphs: []string{"", "kept"}}
	pairs := Align(source, nil)

	if pairs.Paragraphs[0].Source != nil {
		t.Error("empty paragraph should align as nil, not empty string")
	}
	if pairs.Paragraphs[1].Source == nil || *pairs.Paragraphs[1].Source != "kept" {
		t.Errorf("Paragraphs[1] = %+v", pairs.Paragraphs[1])
	}
}

func TestTargetOnly(t *testing.T) {
	target := &Extraction{
		Title:      "환영합니다",
		Paragraphs: []string{"문단"},
	}

	pairs := TargetOnly(target)
	if pairs.Title.Source != nil {
		t.Error("TargetOnly synthesized a source title")
	}
	if *pairs.Title.Target != "환영합니다" {
		t.Errorf("Title.Target = %v", pairs.Title.Target)
	}
	if len(pairs.Paragraphs) != 1 || pairs.Paragraphs[0].Source != nil {
		t.Errorf("Paragraphs = %+v", pairs.Paragraphs)
	}
}
