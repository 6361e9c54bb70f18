package domain

import "time"

// Параметры окна проверки.
const (
	// LookbackDays — на сколько дней назад от "сегодня" начинается окно.
	LookbackDays = 7

	// WindowLength — количество дней в окне. Сегодняшний день в окно не входит.
	WindowLength = 7

	// DateLayout — формат даты в метках и логах.
	DateLayout = "2006-01-02"
)

// DateWindow — упорядоченная последовательность календарных дней без пропусков.
type DateWindow []time.Time

// NewDateWindow строит окно [today-7 .. today-1].
//
// today приводится к календарной дате в своей таймзоне,
// все дни окна хранятся как полночь UTC.
func NewDateWindow(today time.Time) DateWindow {
	start := Date(today).AddDate(0, 0, -LookbackDays)

	w := make(DateWindow, 0, WindowLength)
	for i := 0; i < WindowLength; i++ {
		w = append(w, start.AddDate(0, 0, i))
	}
	return w
}

// Start возвращает первый день окна.
func (w DateWindow) Start() time.Time {
	if len(w) == 0 {
		return time.Time{}
	}
	return w[0]
}

// End возвращает последний день окна.
func (w DateWindow) End() time.Time {
	if len(w) == 0 {
		return time.Time{}
	}
	return w[len(w)-1]
}

// Missing возвращает дни окна, которых нет в existing, в порядке окна.
// existing может содержать timestamps и дни вне окна.
func (w DateWindow) Missing(existing []time.Time) []time.Time {
	seen := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		seen[FormatDate(d)] = struct{}{}
	}

	var missing []time.Time
	for _, d := range w {
		if _, ok := seen[FormatDate(d)]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

// Strings возвращает дни окна в формате YYYY-MM-DD.
func (w DateWindow) Strings() []string {
	return FormatDates(w)
}

// Date отбрасывает время суток и возвращает календарную дату как полночь UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate форматирует календарную дату как YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDates форматирует список дат.
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = FormatDate(d)
	}
	return out
}
