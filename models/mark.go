package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MarkKind distinguishes a numeric mark from the "NA" sentinel and from
// a missing/unparsable mark. Marks arrive as strings on the wire.
type MarkKind int

const (
	MarkAbsent MarkKind = iota
	MarkNotApplicable
	MarkNumeric
)

type Mark struct {
	Kind  MarkKind
	Value decimal.Decimal
}

// ParseMark converts a raw mark string into the tagged variant.
// Unparsable values count as absent, never as zero.
func ParseMark(raw *string) Mark {
	if raw == nil {
		return Mark{Kind: MarkAbsent}
	}
	return ParseMarkString(*raw)
}

func ParseMarkString(raw string) Mark {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Mark{Kind: MarkAbsent}
	}
	if strings.EqualFold(s, "NA") || strings.EqualFold(s, "N/A") {
		return Mark{Kind: MarkNotApplicable}
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Mark{Kind: MarkAbsent}
	}
	return Mark{Kind: MarkNumeric, Value: v}
}

func (m Mark) IsNumeric() bool {
	return m.Kind == MarkNumeric
}

// IsZero is true only for a present numeric zero.
func (m Mark) IsZero() bool {
	return m.Kind == MarkNumeric && m.Value.IsZero()
}

func (m Mark) Decimal() decimal.Decimal {
	if m.Kind != MarkNumeric {
		return decimal.Zero
	}
	return m.Value
}
