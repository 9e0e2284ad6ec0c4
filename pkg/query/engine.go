// ABOUTME: Query compiler and match scan
// ABOUTME: Compiles condition groups into one predicate and scans records into a bitmap

package query

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/nainya/ndstore/pkg/errs"
)

// Compile builds a single predicate from q. Comparators may be nil, in
// which case every dimension uses the default comparator.
func Compile(q Query, cmps Comparators) (Predicate, error) {
	var acc Predicate
	for _, g := range q.Groups {
		if len(g) == 0 {
			continue
		}
		p, err := compileGroup(g, cmps)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = p
			continue
		}
		prev := acc
		switch g[0].Join {
		case Or:
			acc = func(rec any) bool { return prev(rec) || p(rec) }
		case Not:
			acc = func(rec any) bool { return prev(rec) && !p(rec) }
		default:
			acc = func(rec any) bool { return prev(rec) && p(rec) }
		}
	}
	if acc == nil {
		return nil, errs.E(errs.MalformedQuery, "Compile", "query has no conditions")
	}
	return acc, nil
}

func compileGroup(g Group, cmps Comparators) (Predicate, error) {
	preds := make([]Predicate, len(g))
	joins := make([]Join, len(g))
	for i, c := range g {
		p, err := compileCondition(c, cmps)
		if err != nil {
			return nil, err
		}
		join := c.Join
		switch {
		case i == 0:
			// the group-level join belongs to Compile
			join = And
		case join == Not:
			p = negate(p)
			join = And
		}
		preds[i], joins[i] = p, join
	}

	switch len(preds) {
	case 1:
		return preds[0], nil
	case 2:
		return combine2(preds[0], preds[1], joins[1]), nil
	case 3:
		return combine3(preds[0], preds[1], preds[2], joins[1], joins[2]), nil
	}
	return fold(preds, joins), nil
}

func negate(p Predicate) Predicate {
	return func(rec any) bool { return !p(rec) }
}

func combine2(f1, f2 Predicate, join Join) Predicate {
	if join == Or {
		return func(rec any) bool { return f1(rec) || f2(rec) }
	}
	return func(rec any) bool { return f1(rec) && f2(rec) }
}

func combine3(f1, f2, f3 Predicate, j2, j3 Join) Predicate {
	switch {
	case j2 == Or && j3 == Or:
		return func(rec any) bool {
			return f1(rec) || f2(rec) || f3(rec)
		}
	case j2 == Or && j3 == And:
		return func(rec any) bool {
			if !f3(rec) {
				return false
			}
			return f2(rec) || f1(rec)
		}
	case j2 == And && j3 == Or:
		return func(rec any) bool {
			if f3(rec) {
				return true
			}
			return f2(rec) && f1(rec)
		}
	}
	return func(rec any) bool {
		return f3(rec) && f2(rec) && f1(rec)
	}
}

// fold evaluates conditions right to left. A true OR matches at once and a
// false AND fails at once; a true AND fails when the condition after it
// was an OR that did not hold.
func fold(preds []Predicate, joins []Join) Predicate {
	return func(rec any) bool {
		prevJoin, prevOK := Or, true
		for i := len(preds) - 1; i >= 0; i-- {
			ok := preds[i](rec)
			switch joins[i] {
			case Or:
				if ok {
					return true
				}
			case And:
				if !ok {
					return false
				}
				if prevJoin == Or && !prevOK {
					return false
				}
			}
			prevJoin = joins[i]
			if joins[i] == And {
				prevOK = ok
			} else {
				prevOK = ok || prevOK
			}
		}
		return true
	}
}

// Match scans records and returns the positions accepted by pred
func Match(pred Predicate, records []any) *roaring.Bitmap {
	bm := roaring.New()
	for i, rec := range records {
		if pred(rec) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Select returns the records at the positions in bm, in position order
func Select(bm *roaring.Bitmap, records []any) []any {
	out := make([]any, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		if i < len(records) {
			out = append(out, records[i])
		}
	}
	return out
}
