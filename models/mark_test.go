package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMarkString(t *testing.T) {
	cases := []struct {
		raw  string
		kind MarkKind
	}{
		{"", MarkAbsent},
		{"   ", MarkAbsent},
		{"NA", MarkNotApplicable},
		{"na", MarkNotApplicable},
		{"N/A", MarkNotApplicable},
		{"n/a", MarkNotApplicable},
		{" NA ", MarkNotApplicable},
		{"0", MarkNumeric},
		{"3", MarkNumeric},
		{"2.5", MarkNumeric},
		{"-1", MarkNumeric},
		{"excellent", MarkAbsent},
		{"3a", MarkAbsent},
	}
	for _, tc := range cases {
		if got := ParseMarkString(tc.raw); got.Kind != tc.kind {
			t.Errorf("ParseMarkString(%q).Kind = %d, want %d", tc.raw, got.Kind, tc.kind)
		}
	}
}

func TestParseMark_NilIsAbsent(t *testing.T) {
	if got := ParseMark(nil); got.Kind != MarkAbsent {
		t.Errorf("ParseMark(nil).Kind = %d, want MarkAbsent", got.Kind)
	}
}

func TestMarkIsZero(t *testing.T) {
	zero := "0.0"
	if !ParseMark(&zero).IsZero() {
		t.Error("numeric 0.0 must be zero")
	}
	na := "NA"
	if ParseMark(&na).IsZero() {
		t.Error("NA must never read as zero")
	}
	if ParseMark(nil).IsZero() {
		t.Error("absent must never read as zero")
	}
}

func TestMarkDecimal(t *testing.T) {
	m := ParseMarkString("4.25")
	if !m.Decimal().Equal(decimal.RequireFromString("4.25")) {
		t.Errorf("Decimal() = %s, want 4.25", m.Decimal())
	}
	if !ParseMarkString("NA").Decimal().IsZero() {
		t.Error("non-numeric marks decay to zero")
	}
}

func TestChecklistItemMaxScore(t *testing.T) {
	item := ChecklistItem{Options: []ChecklistItemOption{
		{Mark: "NA"},
		{Mark: "1"},
		{Mark: "3"},
		{Mark: "bogus"},
	}}
	if got := item.MaxScore(); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("MaxScore = %s, want 3", got)
	}

	onlyNA := ChecklistItem{Options: []ChecklistItemOption{{Mark: "NA"}}}
	if got := onlyNA.MaxScore(); !got.IsZero() {
		t.Errorf("MaxScore of NA-only item = %s, want 0", got)
	}

	negative := ChecklistItem{Options: []ChecklistItemOption{{Mark: "-2"}, {Mark: "-5"}}}
	if got := negative.MaxScore(); !got.Equal(decimal.NewFromInt(-2)) {
		t.Errorf("MaxScore of negative-only item = %s, want -2", got)
	}
}
