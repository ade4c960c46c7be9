package model

// VehicleKind enumerates the vehicle archetypes available to the simulator.
type VehicleKind int

const (
	KindRenault VehicleKind = iota
	KindFord
	KindTesla
	KindNissan
)

// String returns the brand name of the archetype.
func (k VehicleKind) String() string {
	switch k {
	case KindRenault:
		return "Renault"
	case KindFord:
		return "Ford"
	case KindTesla:
		return "Tesla"
	case KindNissan:
		return "Nissan"
	default:
		return "Generic"
	}
}

// VehicleProfile is the immutable data sheet of an archetype.
type VehicleProfile struct {
	Brand            string  `json:"brand"`
	BatteryKWh       float64 `json:"battery_kwh"`
	ChargeRateKW     float64 `json:"charge_rate_kw"`
	ConsumptionKWhKm float64 `json:"consumption_kwh_km"`
}

// RemainingRange returns the energy left after consuming the given amount,
// floored at zero.
func (p VehicleProfile) RemainingRange(consumedKWh float64) float64 {
	if r := p.BatteryKWh - consumedKWh; r > 0 {
		return r
	}
	return 0
}

var profiles = map[VehicleKind]VehicleProfile{
	KindRenault: {Brand: "Renault", BatteryKWh: 40, ChargeRateKW: 22, ConsumptionKWhKm: 0.15},
	KindFord:    {Brand: "Ford", BatteryKWh: 50, ChargeRateKW: 50, ConsumptionKWhKm: 0.18},
	KindTesla:   {Brand: "Tesla", BatteryKWh: 75, ChargeRateKW: 120, ConsumptionKWhKm: 0.20},
	KindNissan:  {Brand: "Nissan", BatteryKWh: 60, ChargeRateKW: 50, ConsumptionKWhKm: 0.16},
}

// Profile returns the data sheet for the given kind.
func Profile(k VehicleKind) VehicleProfile { return profiles[k] }

// VehicleKinds lists every archetype in a stable order. The simulator draws
// uniformly from this slice when pairing a vehicle with a home.
func VehicleKinds() []VehicleKind {
	return []VehicleKind{KindRenault, KindFord, KindTesla, KindNissan}
}
