package calendar

// Bundled national holiday calendar. The list is versioned with the
// binary and covers the supported booking horizon; it is not editable
// through any exposed interface.
var holidays = []string{
	"2024-01-01", "2024-02-12", "2024-02-13", "2024-03-24", "2024-03-29", "2024-04-02",
	"2024-05-01", "2024-05-25", "2024-06-17", "2024-06-20", "2024-07-09", "2024-08-17",
	"2024-10-12", "2024-11-20", "2024-12-08", "2024-12-25",
	"2025-01-01", "2025-03-03", "2025-03-04", "2025-03-24",
}

// Holidays returns a copy of the bundled holiday dates (YYYY-MM-DD).
func Holidays() []string {
	out := make([]string, len(holidays))
	copy(out, holidays)
	return out
}
