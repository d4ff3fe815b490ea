package stage

import "strings"

func sanitizeErrorMessage(msg string) string {
	s := strings.Join(strings.Fields(msg), " ")
	if s == "" {
		return "error"
	}
	return s
}

// appendSanitizedErrors adds errs to out with one-line messages and keeps
// the error list sorted.
func appendSanitizedErrors(out *Envelope, errs []Error) {
	if len(errs) == 0 {
		return
	}
	for _, e := range errs {
		e.Message = sanitizeErrorMessage(e.Message)
		out.Errors = append(out.Errors, e)
	}
	SortEnvelopeErrors(out)
}
