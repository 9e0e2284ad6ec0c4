// ABOUTME: Tri-state comparators over record dimensions
// ABOUTME: Provides the default dimension comparator and a total order over values

package compare

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/nainya/ndstore/pkg/record"
)

// Func orders two records: negative when a sorts first, positive when b
// does, zero when they are equivalent
type Func func(a, b any) int

// Default returns the comparator used for dims without a registered one.
// Nil records and missing values sort after present ones.
func Default(dim string) Func {
	return func(a, b any) int {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		case b == nil:
			return -1
		}

		va, okA := record.Get(a, dim)
		vb, okB := record.Get(b, dim)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return Values(va, vb)
	}
}

// Global keeps present records in place under a stable sort and pushes
// nil records to the end
func Global(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return 0
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankTime
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case string:
		return rankString
	case time.Time:
		return rankTime
	}
	if _, ok := record.Number(v); ok {
		return rankNumber
	}
	return rankOther
}

// Values is a total order over scalar values: nil, then bools, numbers,
// strings, times and finally everything else by its printed form
func Values(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case rankNumber:
		na, _ := record.Number(a)
		nb, _ := record.Number(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(norm.NFC.String(a.(string)), norm.NFC.String(b.(string)))
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Collated orders string values at dim using the collation rules of tag.
// Non-string values fall back to Values.
func Collated(dim string, tag language.Tag) Func {
	col := collate.New(tag)
	return func(a, b any) int {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		case b == nil:
			return -1
		}

		va, okA := record.Get(a, dim)
		vb, okB := record.Get(b, dim)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}

		sa, okA := va.(string)
		sb, okB := vb.(string)
		if okA && okB {
			return col.CompareString(sa, sb)
		}
		return Values(va, vb)
	}
}

// Reverse inverts the order of fn
func Reverse(fn Func) Func {
	return func(a, b any) int { return fn(b, a) }
}
