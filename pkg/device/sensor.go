package device

import "math"

// Measurement is one environmental reading.
type Measurement struct {
	// Temperature in degrees Celsius.
	Temperature float64
	// Pressure in Pascal, at the sensor's altitude.
	Pressure float64
	// Humidity in percent relative humidity.
	Humidity float64
}

// Sensor produces environmental measurements.
type Sensor interface {
	Measure() (Measurement, error)
}

// SealevelPressure converts a measurement's pressure to the equivalent
// pressure at sea level, given the sensor's altitude in meters.
func SealevelPressure(m Measurement, altitude float64) float64 {
	return math.Pow(1+(altitude*0.0065)/(m.Temperature+273.15), 5.256) * m.Pressure
}

// SimSensor reports a fixed measurement.
type SimSensor struct {
	M Measurement
}

// NewSimSensor creates a SimSensor with plausible indoor values.
func NewSimSensor() *SimSensor {
	return &SimSensor{M: Measurement{
		Temperature: 21.5,
		Pressure:    101300,
		Humidity:    45,
	}}
}

// Measure implements Sensor.
func (s *SimSensor) Measure() (Measurement, error) {
	return s.M, nil
}
