package capture

// ShouldCapture reports whether a capture with the given context tag should
// be persisted under the given mode. Pure function of its inputs.
func ShouldCapture(mode Mode, context string) bool {
	switch mode {
	case ModeNone:
		return false
	case ModeSearchOnly:
		return context == SearchContext
	case ModeAll:
		return true
	default:
		return false
	}
}
