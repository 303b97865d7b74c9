package model

// EMUPerCanvasUnit is the number of English Metric Units in one canvas unit.
// The canvas works in CSS pixels at 96 DPI, so 914400 EMU/inch / 96 = 9525.
// All package geometry is converted through this constant and nothing else.
const EMUPerCanvasUnit = 9525.0

// LineEpsilon replaces a zero line delta so the canvas does not read the
// dimension as unset.
const LineEpsilon = 0.01

// rotationUnitsPerDegree is the OOXML angle unit (60000ths of a degree).
const rotationUnitsPerDegree = 60000.0

// ToCanvasUnits converts value by dividing it by sourceUnitsPerCanvasUnit.
// Sign and range are not checked.
func ToCanvasUnits(value, sourceUnitsPerCanvasUnit float64) float64 {
	return value / sourceUnitsPerCanvasUnit
}

// FromEMU converts a package length to canvas units.
func FromEMU(emu int64) float64 {
	return ToCanvasUnits(float64(emu), EMUPerCanvasUnit)
}

// DegreesFromAngle converts an OOXML angle to degrees.
func DegreesFromAngle(angle int64) float64 {
	return float64(angle) / rotationUnitsPerDegree
}
