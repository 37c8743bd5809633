package weather

import (
	"fmt"
	"time"
)

// ForecastDays is the length of a forecast sequence.
const ForecastDays = 7

// ForecastDay holds one day's high/low temperature and condition.
// LowTemperature <= HighTemperature is expected but not enforced.
type ForecastDay struct {
	Date            time.Time `json:"date" yaml:"date"`
	Condition       Condition `json:"condition" yaml:"condition"`
	HighTemperature float64   `json:"high_temperature" yaml:"high_temperature"`
	LowTemperature  float64   `json:"low_temperature" yaml:"low_temperature"`
	Description     string    `json:"description" yaml:"description"`
}

// Day truncates t to its calendar day, expressed as midnight UTC so that
// dates compare equal regardless of the clock's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (d ForecastDay) TemperatureRange() string {
	return fmt.Sprintf("%.0f° / %.0f°", d.LowTemperature, d.HighTemperature)
}

// Inverted reports a day whose low is above its high.
func (d ForecastDay) Inverted() bool {
	return d.LowTemperature > d.HighTemperature
}

// ValidateSequence checks that days holds exactly ForecastDays consecutive
// calendar days starting at today's date.
func ValidateSequence(days []ForecastDay, today time.Time) error {
	if len(days) != ForecastDays {
		return fmt.Errorf("forecast has %d days, want %d: %w", len(days), ForecastDays, ErrInvalidData)
	}

	want := Day(today)
	for i, d := range days {
		if !Day(d.Date).Equal(want) {
			return fmt.Errorf("forecast day %d is %s, want %s: %w",
				i, d.Date.Format(time.DateOnly), want.Format(time.DateOnly), ErrInvalidData)
		}
		want = want.AddDate(0, 0, 1)
	}

	return nil
}
