package command

import (
	"reflect"
	"testing"
)

func pair(k, v string) Pair     { return Pair{Key: k, Value: v, HasValue: true} }
func bare(k string) Pair        { return Pair{Key: k} }

// TestEscapeRoundtrip is S1 from spec.md §8.
func TestEscapeRoundtrip(t *testing.T) {
	const input = `cmd a=\s\\ b=\p c=abc\tdef`
	cmd, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]string{"a": " \\", "b": "|", "c": "abc\tdef"}
	if len(cmd.Static) != len(want) {
		t.Fatalf("got %d static args, want %d (%+v)", len(cmd.Static), len(want), cmd.Static)
	}
	for _, p := range cmd.Static {
		if got, ok := want[p.Key]; !ok || got != p.Value {
			t.Fatalf("static %s = %q, want %q", p.Key, p.Value, want[p.Key])
		}
	}
	if got := Serialize(cmd); got != input {
		t.Fatalf("Serialize = %q, want exact original %q", got, input)
	}
}

// TestListPromotion is S2 from spec.md §8.
func TestListPromotion(t *testing.T) {
	const input = `cmd a=1 c=3 b=2|b=4|b=5`
	cmd, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wantStatic := []Pair{pair("a", "1"), pair("c", "3")}
	if !reflect.DeepEqual(cmd.Static, wantStatic) {
		t.Fatalf("static = %+v, want %+v", cmd.Static, wantStatic)
	}
	wantList := [][]Pair{{pair("b", "2")}, {pair("b", "4")}, {pair("b", "5")}}
	if !reflect.DeepEqual(cmd.List, wantList) {
		t.Fatalf("list = %+v, want %+v", cmd.List, wantList)
	}
}

func TestBareKeyAndReturnCode(t *testing.T) {
	cmd, err := Parse("cmd a return_code=")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cmd.Static) != 2 || cmd.Static[0] != bare("a") {
		t.Fatalf("unexpected static args: %+v", cmd.Static)
	}
	if v, ok := cmd.StaticValue("return_code"); !ok || v != "" {
		t.Fatalf("return_code = %q, %v", v, ok)
	}
	got := Serialize(cmd)
	if got != "cmd a return_code=" {
		t.Fatalf("Serialize = %q", got)
	}
}

func TestZeroArgCommand(t *testing.T) {
	cmd, err := Parse("cmd")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Name != "cmd" || len(cmd.Static) != 0 || len(cmd.List) != 0 {
		t.Fatalf("unexpected parse result: %+v", cmd)
	}
}

func TestNamelessCommand(t *testing.T) {
	cmd, err := Parse("a=1 b=2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Name != "" {
		t.Fatalf("expected no name, got %q", cmd.Name)
	}
	if len(cmd.Static) != 2 {
		t.Fatalf("expected 2 static args, got %+v", cmd.Static)
	}
}

func TestTrailingWhitespaceLegal(t *testing.T) {
	if _, err := Parse("cmd a=1   "); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestUnknownEscapeIsError(t *testing.T) {
	if _, err := Parse(`cmd a=\q`); err == nil {
		t.Fatalf("expected parse error for unknown escape")
	}
}

func TestMissingKeyIsError(t *testing.T) {
	if _, err := Parse("cmd a=1 =5"); err == nil {
		t.Fatalf("expected parse error: '=' with no preceding key")
	}
}

func TestTrailingBackslashIsError(t *testing.T) {
	if _, err := Parse(`cmd a=1\`); err == nil {
		t.Fatalf("expected parse error for trailing backslash")
	}
}

// TestCanonicalizeIdempotent is property 1 from spec.md §8: parsing the
// serialized canonical form reproduces the same canonical rows.
func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		`cmd a=1 c=3 b=2|b=4|b=5`,
		`cmd a=\s\\ b=\p c=abc\tdef`,
		`notifyclientmoved reasonid=0|clid=1 cid=2|clid=3 cid=2`,
		`cmd`,
	}
	for _, in := range inputs {
		cmd, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		canon := Canonicalize(cmd)

		reparsed, err := Parse(Serialize(cmd))
		if err != nil {
			t.Fatalf("reparse of serialized %q: %v", in, err)
		}
		canon2 := Canonicalize(reparsed)
		if !reflect.DeepEqual(canon, canon2) {
			t.Fatalf("canonical forms differ for %q:\n%+v\n%+v", in, canon, canon2)
		}
	}
}
