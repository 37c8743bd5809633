package weather

import "fmt"

// Condition is the coarse weather condition tag of a reading or forecast day.
type Condition string

const (
	ConditionSunny  Condition = "sunny"
	ConditionCloudy Condition = "cloudy"
	ConditionRainy  Condition = "rainy"
	ConditionStormy Condition = "stormy"
	ConditionSnowy  Condition = "snowy"
	ConditionWindy  Condition = "windy"
	ConditionOther  Condition = "other"
)

// Quality is a coarse rating derived from temperature, humidity and wind.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// Reading is a single point-in-time weather observation. Values are never
// mutated after construction; a new fetch replaces the whole reading.
type Reading struct {
	Temperature float64   `json:"temperature" yaml:"temperature" validate:"gte=-50,lte=60"`
	Condition   Condition `json:"condition" yaml:"condition" validate:"required"`
	Humidity    float64   `json:"humidity" yaml:"humidity" validate:"gte=0,lte=1"`
	WindSpeed   float64   `json:"wind_speed" yaml:"wind_speed" validate:"gte=0,lte=200"`
	Description string    `json:"description" yaml:"description"`
}

// NewReading builds a Reading and rejects it when any invariant is violated.
// The returned error is an *InvalidReadingError listing every violation.
func NewReading(temperature float64, condition Condition, humidity, windSpeed float64, description string) (Reading, error) {
	r := Reading{
		Temperature: temperature,
		Condition:   condition,
		Humidity:    humidity,
		WindSpeed:   windSpeed,
		Description: description,
	}

	if reasons := r.Validate(); len(reasons) > 0 {
		return Reading{}, &InvalidReadingError{Reasons: reasons}
	}

	return r, nil
}

// Validate returns one message per violated invariant, or nil.
func (r Reading) Validate() []string {
	return validateReading(r)
}

func (r Reading) IsValid() bool {
	return len(r.Validate()) == 0
}

// Fahrenheit converts the temperature to degrees Fahrenheit.
func (r Reading) Fahrenheit() float64 {
	return r.Temperature*9/5 + 32
}

// IsComfortable reports 18-26°C with humidity at most 70%.
func (r Reading) IsComfortable() bool {
	return r.Temperature >= 18 && r.Temperature <= 26 && r.Humidity <= 0.7
}

// Quality rates the reading; the first matching rule wins.
func (r Reading) Quality() Quality {
	switch {
	case r.IsComfortable() && r.WindSpeed < 20:
		return QualityExcellent
	case r.Temperature >= 15 && r.Temperature <= 30 && r.Humidity <= 0.8:
		return QualityGood
	case r.Temperature >= 5 && r.Temperature <= 35:
		return QualityFair
	default:
		return QualityPoor
	}
}

func (r Reading) TemperatureDisplay() string {
	return fmt.Sprintf("%.1f°C", r.Temperature)
}

func (r Reading) FahrenheitDisplay() string {
	return fmt.Sprintf("%.1f°F", r.Fahrenheit())
}

func (r Reading) HumidityDisplay() string {
	return fmt.Sprintf("%.0f%%", r.Humidity*100)
}

func (r Reading) WindSpeedDisplay() string {
	return fmt.Sprintf("%.1f km/h", r.WindSpeed)
}

func (r Reading) String() string {
	return fmt.Sprintf("Condition: %s, Temperature: %s, Humidity: %s, Wind: %s",
		r.Condition,
		r.TemperatureDisplay(),
		r.HumidityDisplay(),
		r.WindSpeedDisplay())
}
