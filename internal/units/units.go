// Package units names the distance scales the two obstacle sensors report
// in and converts between them.
package units

import "fmt"

// Distance identifies the unit a range reading is expressed in.
type Distance string

const (
	MM Distance = "mm" // range scanner
	CM Distance = "cm" // ultrasonic controller
)

// MillimetresToCentimetres converts a configured millimetre distance into
// the centimetre scale reported by the ultrasonic controller. Integer
// division keeps multiples of 10 mm exact (200 mm -> 20 cm).
func MillimetresToCentimetres(mm int) int {
	return mm / 10
}

// CentimetresToMillimetres is the inverse of MillimetresToCentimetres.
func CentimetresToMillimetres(cm int) int {
	return cm * 10
}

// Format renders a distance with its unit suffix, e.g. "245mm".
func Format(value int, unit Distance) string {
	return fmt.Sprintf("%d%s", value, unit)
}
