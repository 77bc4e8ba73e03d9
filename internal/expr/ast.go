package expr

// Node is an element of a parsed rate expression.
type Node interface {
	node()
}

// Number is a numeric literal.
type Number struct {
	Value float64
	Text  string
	Pos   Pos
}

// Gaussian is one exponential peak term exp(-((v - Center)**2) / Width).
type Gaussian struct {
	Func   string // as written: exp, np.exp, math.exp, ...
	Center float64
	Width  float64
	Pos    Pos
}

// Term is an additive item with an optional coefficient. Body is a
// *Gaussian or a *Group.
type Term struct {
	Coef *Number
	Body Node
	Pos  Pos
}

// Group is a parenthesised sum of terms.
type Group struct {
	Terms []*Term
	Pos   Pos
}

// RateExpr is the body of the rate_function lambda: bare numbers that add
// up to the baseline, and terms that contribute peaks. Skipped lists the
// items that were outside the grammar, positioned where reading failed.
type RateExpr struct {
	Param   string
	Base    []*Number
	Terms   []*Term
	Skipped []*ParseError
	Pos     Pos
}

func (*Number) node()   {}
func (*Gaussian) node() {}
func (*Term) node()     {}
func (*Group) node()    {}
func (*RateExpr) node() {}

// HasBase reports whether the expression had at least one bare number.
func (e *RateExpr) HasBase() bool { return len(e.Base) > 0 }

// BaseRate sums the bare numbers of the expression.
func (e *RateExpr) BaseRate() float64 {
	var sum float64
	for _, n := range e.Base {
		sum += n.Value
	}
	return sum
}

// Peak is a Gaussian together with the product of every coefficient that
// applies to it.
type Peak struct {
	Gaussian  *Gaussian
	Intensity float64
}

// Peaks flattens the expression into its Gaussian terms in source order.
// A Gaussian with no coefficient anywhere above it has intensity 1.
func (e *RateExpr) Peaks() []Peak {
	var out []Peak
	for _, t := range e.Terms {
		out = appendPeaks(out, t, 1)
	}
	return out
}

func appendPeaks(out []Peak, t *Term, scale float64) []Peak {
	if t.Coef != nil {
		scale *= t.Coef.Value
	}
	switch b := t.Body.(type) {
	case *Gaussian:
		out = append(out, Peak{Gaussian: b, Intensity: scale})
	case *Group:
		for _, inner := range b.Terms {
			out = appendPeaks(out, inner, scale)
		}
	}
	return out
}
