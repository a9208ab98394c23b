package domain

// VitalField names one measurement in the vitals record.
type VitalField string

const (
	VitalSystolicBP       VitalField = "systolic_bp"
	VitalDiastolicBP      VitalField = "diastolic_bp"
	VitalHeartRate        VitalField = "heart_rate"
	VitalRespiratoryRate  VitalField = "respiratory_rate"
	VitalTemperature      VitalField = "temperature"
	VitalWeight           VitalField = "weight"
	VitalHeight           VitalField = "height"
	VitalOxygenSaturation VitalField = "oxygen_saturation"
)

// AllVitalFields lists the measurable fields in display order.
var AllVitalFields = []VitalField{
	VitalSystolicBP,
	VitalDiastolicBP,
	VitalHeartRate,
	VitalRespiratoryRate,
	VitalTemperature,
	VitalWeight,
	VitalHeight,
	VitalOxygenSaturation,
}

// VitalSigns is a sparse record of measurements. A nil field means the
// measurement was not taken; a record with every field nil is still a valid
// save.
type VitalSigns struct {
	SystolicBP       *float64 `json:"systolicBp,omitempty"`
	DiastolicBP      *float64 `json:"diastolicBp,omitempty"`
	HeartRate        *float64 `json:"heartRate,omitempty"`
	RespiratoryRate  *float64 `json:"respiratoryRate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	OxygenSaturation *float64 `json:"oxygenSaturation,omitempty"`
}

// Get returns the value of one field and whether the field name is known.
func (v VitalSigns) Get(f VitalField) (*float64, bool) {
	switch f {
	case VitalSystolicBP:
		return v.SystolicBP, true
	case VitalDiastolicBP:
		return v.DiastolicBP, true
	case VitalHeartRate:
		return v.HeartRate, true
	case VitalRespiratoryRate:
		return v.RespiratoryRate, true
	case VitalTemperature:
		return v.Temperature, true
	case VitalWeight:
		return v.Weight, true
	case VitalHeight:
		return v.Height, true
	case VitalOxygenSaturation:
		return v.OxygenSaturation, true
	}
	return nil, false
}

// Set stores value (nil to unset) into one field and reports whether the
// field name is known.
func (v *VitalSigns) Set(f VitalField, value *float64) bool {
	switch f {
	case VitalSystolicBP:
		v.SystolicBP = value
	case VitalDiastolicBP:
		v.DiastolicBP = value
	case VitalHeartRate:
		v.HeartRate = value
	case VitalRespiratoryRate:
		v.RespiratoryRate = value
	case VitalTemperature:
		v.Temperature = value
	case VitalWeight:
		v.Weight = value
	case VitalHeight:
		v.Height = value
	case VitalOxygenSaturation:
		v.OxygenSaturation = value
	default:
		return false
	}
	return true
}
