package weather

import "fmt"

// SentinelCoordinate is reserved to mark a location as unknown.
const SentinelCoordinate = 999

// Fallback is used whenever the device location cannot be obtained.
var Fallback = Coordinate{Latitude: 25.0330, Longitude: 121.5654}

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Longitude float64 `json:"lon" yaml:"lon" validate:"longitude"`
}

// Validate returns ErrInvalidLocation when either axis is out of range,
// NaN, or equal to the sentinel.
func (c Coordinate) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrInvalidLocation
	}
	return nil
}

// Key identifies the coordinate at six decimal places.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

func (c Coordinate) String() string {
	return c.Key()
}
