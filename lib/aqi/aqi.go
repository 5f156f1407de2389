// Package aqi converts raw PM2.5 concentrations (µg/m³) into the EPA Air
// Quality Index via piecewise-linear interpolation over six breakpoints.
package aqi

// Result is the outcome of a conversion. Index is nil when the
// concentration falls outside the defined [0, 500] domain.
type Result struct {
	Index       *float64
	Category    string
	Description string
}

const OutOfRangeDescription = "PM2.5 value out of range."

type band struct {
	pmLow, pmHigh   float64
	aqiLow, aqiHigh float64
	category        string
	description     string
}

// Each band matches concentrations in (previous pmHigh, pmHigh]; the first
// band matches [0, 12.0]. Interpolation runs from pmLow, which for every
// band after the first sits 0.1 above the previous band's ceiling.
var bands = []band{
	{0, 12.0, 0, 50, "Good",
		"Good air quality. Minimal impact on health."},
	{12.1, 35.4, 51, 100, "Moderate",
		"Moderate air quality. Acceptable for most but sensitive individuals may experience minor effects."},
	{35.5, 55.4, 101, 150, "Unhealthy for Sensitive Groups",
		"Unhealthy for sensitive groups. Individuals with respiratory issues may be affected."},
	{55.5, 150.4, 151, 200, "Unhealthy",
		"Unhealthy. Everyone may begin to experience health effects."},
	{150.5, 250.4, 201, 300, "Very Unhealthy",
		"Very unhealthy. Health warnings of emergency conditions."},
	{250.5, 500, 301, 500, "Hazardous",
		"Hazardous. Emergency conditions. The entire population is likely to be affected."},
}

// FromPM25 maps a PM2.5 concentration to an AQI value and category.
// Pure and deterministic; out-of-domain inputs are a defined case, not an
// error.
func FromPM25(pm25 float64) Result {
	if pm25 < 0 || pm25 > 500 {
		return Result{Category: "Out of Range", Description: OutOfRangeDescription}
	}

	for _, b := range bands {
		if pm25 <= b.pmHigh {
			index := b.aqiLow + (b.aqiHigh-b.aqiLow)/(b.pmHigh-b.pmLow)*(pm25-b.pmLow)
			return Result{Index: &index, Category: b.category, Description: b.description}
		}
	}

	// Unreachable: the last band's ceiling is the domain ceiling.
	return Result{Category: "Out of Range", Description: OutOfRangeDescription}
}
