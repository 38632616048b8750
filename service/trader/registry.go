package trader

import (
	"sort"

	"margin/core"
)

type registry struct {
	legs   map[string]core.ConversionLeg
	venues map[string]core.ExternalVenue
}

// NewRegistry legs & venues by name, later entries replace earlier ones of the same name
func NewRegistry(legs []core.ConversionLeg, venues []core.ExternalVenue) core.ITraderRegistry {
	r := &registry{
		legs:   make(map[string]core.ConversionLeg, len(legs)),
		venues: make(map[string]core.ExternalVenue, len(venues)),
	}

	for _, l := range legs {
		r.legs[l.Name()] = l
	}

	for _, v := range venues {
		r.venues[v.Name()] = v
	}

	return r
}

func (r *registry) Leg(name string) (core.ConversionLeg, bool) {
	l, ok := r.legs[name]
	return l, ok
}

func (r *registry) Venue(name string) (core.ExternalVenue, bool) {
	v, ok := r.venues[name]
	return v, ok
}

func (r *registry) Legs() []core.ConversionLeg {
	legs := make([]core.ConversionLeg, 0, len(r.legs))
	for _, l := range r.legs {
		legs = append(legs, l)
	}

	sort.Slice(legs, func(i, j int) bool { return legs[i].Name() < legs[j].Name() })
	return legs
}

func (r *registry) Venues() []core.ExternalVenue {
	venues := make([]core.ExternalVenue, 0, len(r.venues))
	for _, v := range r.venues {
		venues = append(venues, v)
	}

	sort.Slice(venues, func(i, j int) bool { return venues[i].Name() < venues[j].Name() })
	return venues
}
