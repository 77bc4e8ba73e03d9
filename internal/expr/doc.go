// Package expr reads and writes the textual form of a rate function.
//
// Source text is generator code of the shape
//
//	PoissonOrderGenerator(
//	    total_orders=200,
//	    time_window=600,
//	    rate_function=lambda t: 0.05 + 0.25 * (
//	        np.exp(-((t - 210)**2) / 1000) +
//	        np.exp(-((t - 390)**2) / 1000)
//	    )
//	)
//
// Lex tokenizes it, the parser builds a RateExpr syntax tree for the lambda
// body, and Extract collects the recognised fields into an Update. Parse
// merges an Update into an existing Config: fields missing from the text
// keep their previous values, and on error the Config is returned as it
// was.
//
// Only the additive-Gaussian grammar is read inside the lambda: bare
// numbers (the baseline) and exp terms, each optionally multiplied by a
// coefficient, possibly grouped in parentheses under a shared coefficient.
// Anything else, such as np.sin(t) or a subtracted term, is skipped and
// reported in Update.Skipped, keeping whatever was recognised. Unbalanced
// parentheses and a malformed lambda header are errors.
//
// Render is the inverse for calibrated configs. It factors out a shared
// intensity when every peak has the same four-decimal intensity.
package expr
