package model

import (
	"testing"

	"github.com/ekinyavuz/evplan/core/geo"
)

func TestProfileCatalog(t *testing.T) {
	cases := []struct {
		kind     VehicleKind
		brand    string
		battery  float64
		charge   float64
		consRate float64
	}{
		{KindRenault, "Renault", 40, 22, 0.15},
		{KindFord, "Ford", 50, 50, 0.18},
		{KindTesla, "Tesla", 75, 120, 0.20},
		{KindNissan, "Nissan", 60, 50, 0.16},
	}
	for _, c := range cases {
		p := Profile(c.kind)
		if p.Brand != c.brand || p.BatteryKWh != c.battery ||
			p.ChargeRateKW != c.charge || p.ConsumptionKWhKm != c.consRate {
			t.Fatalf("%s: unexpected profile %+v", c.brand, p)
		}
	}
	if len(VehicleKinds()) != 4 {
		t.Fatalf("catalog must have 4 archetypes")
	}
}

func TestRemainingRangeClamped(t *testing.T) {
	p := Profile(KindRenault)
	if got := p.RemainingRange(10); got != 30 {
		t.Fatalf("expected 30 got %v", got)
	}
	if got := p.RemainingRange(100); got != 0 {
		t.Fatalf("remaining range must not go negative, got %v", got)
	}
}

func TestPOIFixedCosts(t *testing.T) {
	if POIHome.FixedCost() != 1 || POIParking.FixedCost() != 12 || POIFuel.FixedCost() != 50 {
		t.Fatalf("fixed costs do not match the catalog")
	}
}

func TestParsePOIKind(t *testing.T) {
	for _, k := range []POIKind{POIHome, POIParking, POIFuel} {
		got, err := ParsePOIKind(k.String())
		if err != nil || got != k {
			t.Fatalf("round trip failed for %s: %v", k, err)
		}
	}
	if _, err := ParsePOIKind("Mall"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestCandidateTag(t *testing.T) {
	c := NewStationCandidate(3, geo.Point{Lat: 41, Lon: 29}, POIParking)
	if c.Tag != "S03-Parking" {
		t.Fatalf("unexpected tag %q", c.Tag)
	}
}

func TestEVIDAndHomeLabel(t *testing.T) {
	if EVID(0) != "E01" || EVID(11) != "E12" {
		t.Fatalf("ev id formatting broken")
	}
	h := HomePoint{ID: 7}
	if h.Label() != "H07" {
		t.Fatalf("unexpected home label %q", h.Label())
	}
}

func TestSolutionOpened(t *testing.T) {
	sol := Solution{Stations: []OpenedStation{{StationCandidate: StationCandidate{ID: 2}}}}
	if !sol.Opened(2) || sol.Opened(3) {
		t.Fatalf("Opened lookup broken")
	}
}
