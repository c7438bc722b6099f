package taxonomy

// Default ids referenced by configuration defaults. They must exist in the
// default registry.
const (
	DefaultDurationID = "dur-15m"
	DefaultContextID  = "ctx-computer"
)

// DefaultLabels is the shipped label set: exactly four Duration labels plus
// the Context, Theme, Horizon, and Performance groups.
func DefaultLabels() []Label {
	return []Label{
		{ID: "dur-5m", DisplayName: "5 minutes", Emoji: "⚡", Category: CategoryDuration, Description: "quick win, under five minutes"},
		{ID: "dur-15m", DisplayName: "15 minutes", Emoji: "⏱️", Category: CategoryDuration, Description: "short task, about fifteen minutes"},
		{ID: "dur-1h", DisplayName: "1 hour", Emoji: "🕐", Category: CategoryDuration, Description: "focused block, about an hour"},
		{ID: "dur-deep", DisplayName: "Deep work", Emoji: "🧠", Category: CategoryDuration, Description: "multi-hour deep work session"},

		{ID: "ctx-computer", DisplayName: "Computer", Emoji: "💻", Category: CategoryContext, Description: "needs a computer"},
		{ID: "ctx-phone", DisplayName: "Phone", Emoji: "📞", Category: CategoryContext, Description: "call or phone-only action"},
		{ID: "ctx-errands", DisplayName: "Errands", Emoji: "🚗", Category: CategoryContext, Description: "requires going somewhere"},
		{ID: "ctx-home", DisplayName: "Home", Emoji: "🏠", Category: CategoryContext, Description: "doable only at home"},
		{ID: "ctx-anywhere", DisplayName: "Anywhere", Emoji: "🌍", Category: CategoryContext, Description: "no particular place needed"},

		{ID: "thm-admin", DisplayName: "Admin", Emoji: "📋", Category: CategoryTheme, Description: "paperwork and administration"},
		{ID: "thm-money", DisplayName: "Money", Emoji: "💰", Category: CategoryTheme, Description: "finances, bills, purchases"},
		{ID: "thm-health", DisplayName: "Health", Emoji: "🩺", Category: CategoryTheme, Description: "health and appointments"},
		{ID: "thm-family", DisplayName: "Family", Emoji: "👪", Category: CategoryTheme, Description: "family and relationships"},
		{ID: "thm-work", DisplayName: "Work", Emoji: "💼", Category: CategoryTheme, Description: "professional obligations"},

		{ID: "hor-today", DisplayName: "Today", Emoji: "🔥", Category: CategoryHorizon, Description: "urgent, same-day"},
		{ID: "hor-week", DisplayName: "This week", Emoji: "📅", Category: CategoryHorizon, Description: "due within the week"},
		{ID: "hor-someday", DisplayName: "Someday", Emoji: "🌙", Category: CategoryHorizon, Description: "no deadline pressure"},

		{ID: "perf-energize", DisplayName: "Energizing", Emoji: "☀️", Category: CategoryPerformance, Description: "best tackled fresh"},
		{ID: "perf-drain", DisplayName: "Draining", Emoji: "🪫", Category: CategoryPerformance, Description: "low-energy compatible"},
	}
}

// NewDefaultRegistry builds the registry from DefaultLabels. It panics on
// error because the shipped label set is a compile-time constant; failing
// to build it is a programming error.
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultLabels())
	if err != nil {
		panic("taxonomy: default registry invalid: " + err.Error())
	}
	return r
}
