package monitor

import "aigate/models"

// DefaultFallback is shown for modules without a dedicated message
const DefaultFallback = "This feature is temporarily unavailable while we check the quality of automated answers. Please try again in a few minutes."

var fallbackMessages = map[string]string{
	models.ModuleChat:    "The assistant is temporarily paused while we verify its answers. Please try again shortly.",
	models.ModuleChart:   "Charts are temporarily unavailable. You can still view your data in table form.",
	models.ModuleReport:  "Automated reports are temporarily unavailable. Please try again later or export the raw data.",
	models.ModuleLetter:  "Letter drafting is temporarily unavailable. Please use one of the saved templates for now.",
	models.ModuleInsight: "Automated insights are temporarily unavailable. The underlying figures are still accurate.",
}

// FallbackMessage is what callers show instead of rendering while the kill switch is active
func FallbackMessage(module string) string {
	if msg, ok := fallbackMessages[module]; ok {
		return msg
	}
	return DefaultFallback
}

// FallbackMessage is the package-level lookup, exposed on the monitor for callers holding one
func (m *Monitor) FallbackMessage(module string) string {
	return FallbackMessage(module)
}
