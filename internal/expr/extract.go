package expr

import (
	"fmt"

	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// Keyword names recognised in generator source text.
const (
	KeyTotalOrders        = "total_orders"
	KeyEstimatedNumOrders = "estimated_num_orders"
	KeyTimeWindow         = "time_window"
	KeyRateFunction       = "rate_function"
)

// Update holds the fields found in a piece of source text. A nil field was
// not present and must leave the corresponding Config value alone.
type Update struct {
	TargetCount *float64
	TimeWindow  *float64
	BaseRate    *float64
	// Peaks is nil when the rate function was absent or had no exp terms.
	Peaks []ratemodel.Peak
	// Rate is the parsed lambda body, if any.
	Rate *RateExpr
	// Skipped lists the lambda items that could not be read.
	Skipped []*ParseError
}

// Empty reports whether the update carries no fields at all.
func (u Update) Empty() bool {
	return u.TargetCount == nil && u.TimeWindow == nil && u.BaseRate == nil && u.Peaks == nil
}

// Apply merges u into cfg and returns the result. cfg is not modified.
func (u Update) Apply(cfg ratemodel.Config) ratemodel.Config {
	out := cfg.Clone()
	if u.TargetCount != nil {
		out.TargetCount = *u.TargetCount
	}
	if u.TimeWindow != nil {
		out.TimeWindow = *u.TimeWindow
	}
	if u.BaseRate != nil {
		out.BaseRate = *u.BaseRate
	}
	if u.Peaks != nil {
		out.Peaks = make([]ratemodel.Peak, len(u.Peaks))
		copy(out.Peaks, u.Peaks)
	}
	return out
}

// Extract scans src for keyword assignments (`name = value`, as keyword
// arguments or statements) and returns the fields it recognises. The first
// occurrence of each keyword wins. Assignments whose value is not of the
// expected shape, such as a variable instead of a literal, are ignored.
// Inside a rate_function lambda, items outside the additive-Gaussian
// grammar are skipped up to the next top-level '+', ',', ')' or newline
// and reported in Skipped. A lambda without a parameter or colon, or with
// unbalanced parentheses, is a ParseFailure.
func Extract(src string) (Update, error) {
	p := &parser{toks: Lex(src)}
	var u Update
	for p.peek().Kind != TokEOF {
		key := p.next()
		if key.Kind != TokIdent || p.peek().Kind != TokAssign {
			continue
		}
		p.next()

		switch key.Text {
		case KeyTotalOrders, KeyEstimatedNumOrders:
			if u.TargetCount == nil {
				u.TargetCount = p.literal()
			}
		case KeyTimeWindow:
			if u.TimeWindow == nil {
				u.TimeWindow = p.literal()
			}
		case KeyRateFunction:
			if u.Rate != nil {
				continue
			}
			if tok := p.peek(); tok.Kind != TokIdent || tok.Text != "lambda" {
				continue
			}
			e, err := p.parseLambda()
			if err != nil {
				return Update{}, err
			}
			u.Rate = e
			u.Skipped = e.Skipped
		}
	}

	if u.Rate != nil {
		if u.Rate.HasBase() {
			base := u.Rate.BaseRate()
			u.BaseRate = &base
		}
		if peaks := u.Rate.Peaks(); len(peaks) > 0 {
			u.Peaks = make([]ratemodel.Peak, len(peaks))
			for i, pk := range peaks {
				u.Peaks[i] = ratemodel.Peak{
					Center:    pk.Gaussian.Center,
					Intensity: pk.Intensity,
					Width:     pk.Gaussian.Width,
				}
			}
		}
	}
	return u, nil
}

// literal consumes a numeric literal if one is next.
func (p *parser) literal() *float64 {
	tok := p.peek()
	if tok.Kind != TokNumber {
		return nil
	}
	p.next()
	v, err := parseFloat(tok.Text)
	if err != nil {
		return nil
	}
	return &v
}

// Parse merges the fields found in src into cfg. On error cfg is returned
// unchanged together with a *ParseError.
func Parse(cfg ratemodel.Config, src string) (out ratemodel.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = cfg
			err = &ParseError{Msg: fmt.Sprintf("unexpected failure: %v", r)}
		}
	}()

	u, err := Extract(src)
	if err != nil {
		return cfg, err
	}
	return u.Apply(cfg), nil
}
