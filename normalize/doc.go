// Package normalize reduces arbitrary raw backend output to clean, user-safe
// text.
//
// Backends return one of three shapes (see core.RawOutput): plain text, a
// structured record, or the stringified form of a record such as
//
//	RunResponse(content='## Title\n- a', thinking=None, model_run_id='42')
//
// The Normalizer picks the best available extraction for each shape, then
// converts literal escape sequences to real characters, strips control
// characters and trims. It never panics and never returns an empty string:
// when nothing usable remains the core.NoContent sentinel is returned.
//
// Wrapper extraction is best effort. No grammar exists for the wrapper
// format, so the stages are ordered from most to least precise:
//
//  1. regex extraction of a quoted content= value
//  2. positional scan honouring backslash escapes
//  3. line heuristics keeping markdown/prose lines and dropping metadata
//  4. stripping known metadata assignments from the whole payload
//
// A stage whose output is shorter than MinUsableLength hands over to the
// next one, but a complete quoted content field always wins over the
// heuristic stages so that short legitimate answers survive.
package normalize
