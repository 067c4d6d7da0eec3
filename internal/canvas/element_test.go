package canvas

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewElementIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, kind := range Kinds() {
		for range 5 {
			el := NewElement(kind)
			if !strings.HasPrefix(el.ID, string(kind)+"_") {
				t.Errorf("element id %q does not carry the %q prefix", el.ID, kind)
			}
			if seen[el.ID] {
				t.Errorf("duplicate element id generated: %s", el.ID)
			}
			seen[el.ID] = true
		}
	}
}

func TestNewElementDefaults(t *testing.T) {
	tests := []struct {
		kind      Kind
		content   string
		fontSize  float64
		width     float64
		height    float64
		listStyle ListStyle
	}{
		{kind: KindText, content: "Double click to edit text", fontSize: 14, width: 300, height: 40},
		{kind: KindHeading, content: "Heading", fontSize: 24, width: 300, height: 50},
		{kind: KindParagraph, content: "Lorem ipsum dolor sit amet...", fontSize: 14, width: 400, height: 80},
		{kind: KindList, content: "Item 1\nItem 2\nItem 3", fontSize: 14, width: 300, height: 80, listStyle: ListBullet},
		{kind: KindSection, fontSize: 14, width: 200, height: 100},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			el := NewElement(tt.kind)
			if el.Content != tt.content {
				t.Errorf("content = %q, want %q", el.Content, tt.content)
			}
			if el.FontSize != tt.fontSize {
				t.Errorf("fontSize = %g, want %g", el.FontSize, tt.fontSize)
			}
			if el.Width != tt.width || el.Height != tt.height {
				t.Errorf("size = %gx%g, want %gx%g", el.Width, el.Height, tt.width, tt.height)
			}
			if el.ListStyle != tt.listStyle {
				t.Errorf("listStyle = %q, want %q", el.ListStyle, tt.listStyle)
			}
			if el.X != 100 || el.Y != 100 {
				t.Errorf("position = (%g, %g), want (100, 100)", el.X, el.Y)
			}
		})
	}

	heading := NewElement(KindHeading)
	if heading.FontWeight != "bold" {
		t.Errorf("heading fontWeight = %q, want bold", heading.FontWeight)
	}

	section := NewElement(KindSection)
	if section.BackgroundColor != "#f0f0f0" {
		t.Errorf("section background = %q, want #f0f0f0", section.BackgroundColor)
	}
	if section.Children == nil {
		t.Error("section children should be initialized")
	}
}

func TestNewElementUnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown kind")
		}
	}()
	NewElement(Kind("table"))
}

func TestKindValid(t *testing.T) {
	for _, kind := range Kinds() {
		if !kind.Valid() {
			t.Errorf("kind %q should be valid", kind)
		}
	}
	if Kind("image").Valid() {
		t.Error("kind \"image\" should not be valid")
	}
	if Kind("").Valid() {
		t.Error("empty kind should not be valid")
	}
}

func TestElementWireFormat(t *testing.T) {
	el := NewElement(KindList)
	el.ID = "list_fixed"

	payload, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(payload, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Element kind travels as "type" and list style as "listType"
	if wire["type"] != "list" {
		t.Errorf(`wire["type"] = %v, want "list"`, wire["type"])
	}
	if wire["listType"] != "bullet" {
		t.Errorf(`wire["listType"] = %v, want "bullet"`, wire["listType"])
	}
	if _, ok := wire["kind"]; ok {
		t.Error("wire format must not carry a \"kind\" key")
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	section := NewElement(KindSection)
	child := NewElement(KindText)
	section.Children = []Element{child}

	doc := Document{Background: "#ffffff", Elements: []Element{section}}
	clone := doc.Clone()

	clone.Elements[0].Children[0].Content = "changed"
	clone.Elements[0].X = 999

	if doc.Elements[0].Children[0].Content == "changed" {
		t.Error("clone shares child backing with the original")
	}
	if doc.Elements[0].X == 999 {
		t.Error("clone shares top-level backing with the original")
	}
}
