package analysis

import (
	"fmt"
	"io"

	"github.com/banshee-data/rate.report/internal/integrator"
)

// WriteSummary prints the human-readable statistics block followed by the
// generated code.
func (a Analysis) WriteSummary(w io.Writer) error {
	o := a.Original.Rounded()
	s := a.Scaled.Rounded()
	status := "OK"
	if !a.Perfect {
		status = fmt.Sprintf("off by %+.1f", a.Difference)
	}
	_, err := fmt.Fprintf(w,
		`Original rate function
  expected orders: %s
  max rate:        %s /min
  avg rate:        %s /min

Calibration
  scale factor:    %s
  target orders:   %s

Scaled rate function
  expected orders: %s (%s)
  max rate:        %s /min
  avg rate:        %s /min

%s
`,
		integrator.FormatFixed(o.ExpectedCount, integrator.CountDecimals),
		integrator.FormatFixed(o.MaxRate, integrator.RateDecimals),
		integrator.FormatFixed(o.AvgRate, integrator.RateDecimals),
		integrator.FormatFixed(a.Calibration.ScaleFactor, integrator.RateDecimals),
		integrator.FormatFixed(a.Config.TargetCount, 0),
		integrator.FormatFixed(s.ExpectedCount, integrator.CountDecimals), status,
		integrator.FormatFixed(s.MaxRate, integrator.RateDecimals),
		integrator.FormatFixed(s.AvgRate, integrator.RateDecimals),
		a.Code,
	)
	return err
}
