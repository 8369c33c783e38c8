package pacer

import (
	"fmt"
	"strconv"
)

// Limit is either unlimited or bounded at a positive count.
// The zero value is unlimited. No float sentinels, no magic negatives.
type Limit struct {
	n       int
	bounded bool
}

// Unlimited is the absent limit.
var Unlimited = Limit{}

// Bound returns a limit of n. Bounded limits must be positive; this is
// checked when the owning Options are validated, not here.
func Bound(n int) Limit { return Limit{n: n, bounded: true} }

// Allows reports whether one more unit fits under the limit given the
// current count.
func (l Limit) Allows(current int) bool { return !l.bounded || current < l.n }

// Bounded returns the bound and true, or (0, false) when unlimited.
func (l Limit) Bounded() (int, bool) { return l.n, l.bounded }

func (l Limit) String() string {
	if !l.bounded {
		return "unlimited"
	}
	return strconv.Itoa(l.n)
}

func (l Limit) validate(name string) error {
	if l.bounded && l.n <= 0 {
		return fmt.Errorf("%s: bound must be > 0, got %d", name, l.n)
	}
	return nil
}
