package bytecode

import "testing"

func TestLineForPC(t *testing.T) {
	c := &Code{
		FirstLine: 10,
		// pc 0..3 -> line 10, pc 4..7 -> line 11, pc 8+ -> line 13
		LineTable: []byte{4, 1, 4, 2},
	}
	cases := []struct {
		pc   int
		want int
	}{
		{0, 10},
		{3, 10},
		{4, 11},
		{7, 11},
		{8, 13},
		{100, 13},
	}
	for _, tc := range cases {
		if got := c.LineForPC(tc.pc); got != tc.want {
			t.Errorf("LineForPC(%d) = %d, want %d", tc.pc, got, tc.want)
		}
	}
}

func TestSimpleCallFlag(t *testing.T) {
	c := &Code{}
	if !c.SimpleCall() {
		t.Fatal("a plain code object with no kwonly/varargs should permit simple-call")
	}
	c.Flags = FlagVarargs
	if c.SimpleCall() {
		t.Fatal("varargs must disqualify simple-call")
	}
	c2 := &Code{KwOnlyArgCount: 1}
	if c2.SimpleCall() {
		t.Fatal("keyword-only params must disqualify simple-call")
	}
}
