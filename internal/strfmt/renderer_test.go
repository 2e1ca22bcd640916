package strfmt

import "testing"

type mapProvider map[string]string

func (m mapProvider) GetVariable(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func TestRenderPlainVariable(t *testing.T) {
	got := Render("Hello ${PLAYER}!", mapProvider{"PLAYER": "Frodo"})
	if got != "Hello Frodo!" {
		t.Errorf("got %q", got)
	}
}

func TestRenderUnboundVariableFallsBackToName(t *testing.T) {
	got := Render("Hello ${PLAYER}!", mapProvider{})
	if got != "Hello PLAYER!" {
		t.Errorf("got %q", got)
	}
}

func TestRenderOptionsByTag(t *testing.T) {
	// They[!M,!F] also scores 1 for [M] or [F] (one tag absent), and a
	// later option wins a tie, so it is declared first.
	format := "${CLASS:They[!M,!F]|He[M]|She[F]} arrived."
	if got := Render(format, mapProvider{"CLASS": "[M]"}); got != "He arrived." {
		t.Errorf("masculine: got %q", got)
	}
	if got := Render(format, mapProvider{"CLASS": "[F]"}); got != "She arrived." {
		t.Errorf("feminine: got %q", got)
	}
	if got := Render(format, mapProvider{"CLASS": "[N]"}); got != "They arrived." {
		t.Errorf("neuter falls to negative-tag option: got %q", got)
	}
}

func TestRenderOptionsEmptyValueTag(t *testing.T) {
	format := "You have ${COUNT:some items[E]|nothing}."
	if got := Render(format, mapProvider{"COUNT": "3"}); got != "You have some items." {
		t.Errorf("got %q", got)
	}
	if got := Render(format, mapProvider{"COUNT": ""}); got != "You have nothing." {
		t.Errorf("got %q", got)
	}
}

func TestRenderNoPlaceholders(t *testing.T) {
	if got := Render("plain text", mapProvider{}); got != "plain text" {
		t.Errorf("got %q", got)
	}
}

func TestChooseOptionTieGoesToLastDeclared(t *testing.T) {
	options := parseOptions("a[M]|b[M]")
	opt, ok := chooseOption(options, "[M]")
	if !ok || opt.Text != "b" {
		t.Errorf("chooseOption = %#v, ok=%v", opt, ok)
	}
}

func TestChooseOptionDefaultOnAllZero(t *testing.T) {
	options := parseOptions("a[M]|fallback")
	opt, ok := chooseOption(options, "")
	if !ok || opt.Text != "fallback" {
		t.Errorf("chooseOption = %#v, ok=%v", opt, ok)
	}
}
