package strfmt

import "testing"

func TestParseTemplateLiteralOnly(t *testing.T) {
	parts := parseTemplate("hello world")
	if len(parts) != 1 {
		t.Fatalf("parts = %v", parts)
	}
	lit, ok := parts[0].(LiteralPart)
	if !ok || lit.Value != "hello world" {
		t.Errorf("part = %#v", parts[0])
	}
}

func TestParseTemplatePlainVariable(t *testing.T) {
	parts := parseTemplate("Hello #1: there")
	if len(parts) != 3 {
		t.Fatalf("parts = %#v", parts)
	}
	if lit, ok := parts[0].(LiteralPart); !ok || lit.Value != "Hello " {
		t.Errorf("part0 = %#v", parts[0])
	}
	vp, ok := parts[1].(VariablePart)
	if !ok || vp.Index != 1 || vp.Options != nil {
		t.Errorf("part1 = %#v", parts[1])
	}
	if lit, ok := parts[2].(LiteralPart); !ok || lit.Value != " there" {
		t.Errorf("part2 = %#v", parts[2])
	}
}

func TestParseTemplateVariableWithOptions(t *testing.T) {
	parts := parseTemplate("#1:{he[M]|she[F]|they[!M,!F]} said hi")
	if len(parts) != 2 {
		t.Fatalf("parts = %#v", parts)
	}
	vp, ok := parts[0].(VariablePart)
	if !ok {
		t.Fatalf("part0 = %#v", parts[0])
	}
	if len(vp.Options) != 3 {
		t.Fatalf("options = %#v", vp.Options)
	}
	if vp.Options[0].Text != "he" || len(vp.Options[0].Tags) != 1 || vp.Options[0].Tags[0].Code != 'M' {
		t.Errorf("option0 = %#v", vp.Options[0])
	}
	last := vp.Options[2]
	if last.Text != "they" || len(last.Tags) != 2 || !last.Tags[0].Negative || !last.Tags[1].Negative {
		t.Errorf("option2 = %#v", last)
	}
}

func TestParseTemplateNoVariable(t *testing.T) {
	parts := parseTemplate("no hash here, just # and : separately")
	for _, p := range parts {
		if _, ok := p.(VariablePart); ok {
			t.Fatalf("unexpected variable part in %#v", parts)
		}
	}
}

func TestParseOptionsTaglessDefault(t *testing.T) {
	items := parseOptions("some[E]|fallback")
	if len(items) != 2 {
		t.Fatalf("items = %#v", items)
	}
	if items[1].Text != "fallback" || items[1].Tags != nil {
		t.Errorf("default option = %#v", items[1])
	}
}
