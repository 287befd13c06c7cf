package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// ErrUnknownTour is returned when the requested tour has no price schedule.
var ErrUnknownTour = errors.New("unknown tour")

// GroupTooLargeError rejects online checkout above the per-tour cap. The
// buyer has to go through the contact flow instead, this is a business
// rule and not input validation.
type GroupTooLargeError struct {
	Max int
}

func (e *GroupTooLargeError) Error() string {
	return fmt.Sprintf("group size exceeds the maximum of %d for online booking", e.Max)
}

// Tier maps a contiguous party-size range to a single per-person price,
// stored already rounded to 2 digits.
type Tier struct {
	Min  int
	Max  int
	Unit decimal.Decimal
}

type Tour struct {
	ID       string
	Name     string
	MaxGroup int
	Tiers    []Tier
}

// Schedule is immutable after construction. Tiers must partition
// [1, MaxGroup] without gaps or overlaps; a malformed schedule is a
// configuration bug, not a runtime condition.
type Schedule struct {
	currency string
	fx       decimal.Decimal
	tours    map[string]Tour
}

type Quote struct {
	Tour     string
	People   int
	Currency string
	Unit     decimal.Decimal
	Total    decimal.Decimal
}

func NewSchedule(currency string, fxRate float64, tours []Tour) *Schedule {
	m := make(map[string]Tour, len(tours))
	for _, t := range tours {
		m[t.ID] = t
	}
	return &Schedule{
		currency: currency,
		fx:       decimal.NewFromFloat(fxRate),
		tours:    m,
	}
}

func price(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// DefaultSchedule holds the agency catalog. Base prices are per person in
// the settlement currency before the FX factor is applied.
func DefaultSchedule(currency string, fxRate float64) *Schedule {
	return NewSchedule(currency, fxRate, []Tour{
		{
			ID:       "zipaquira",
			Name:     "Catedral de Sal de Zipaquirá",
			MaxGroup: 6,
			Tiers: []Tier{
				{Min: 1, Max: 2, Unit: price(100)},
				{Min: 3, Max: 6, Unit: price(90)},
			},
		},
		{
			ID:       "monserrate",
			Name:     "Cerro de Monserrate",
			MaxGroup: 6,
			Tiers: []Tier{
				{Min: 1, Max: 2, Unit: price(75)},
				{Min: 3, Max: 6, Unit: price(60)},
			},
		},
		{
			ID:       "guatavita",
			Name:     "Laguna de Guatavita",
			MaxGroup: 8,
			Tiers: []Tier{
				{Min: 1, Max: 3, Unit: price(85)},
				{Min: 4, Max: 8, Unit: price(70)},
			},
		},
		{
			ID:       "candelaria",
			Name:     "La Candelaria a pie",
			MaxGroup: 10,
			Tiers: []Tier{
				{Min: 1, Max: 4, Unit: price(40)},
				{Min: 5, Max: 10, Unit: price(30)},
			},
		},
		{
			ID:       "villa-de-leyva",
			Name:     "Villa de Leyva",
			MaxGroup: 8,
			Tiers: []Tier{
				{Min: 1, Max: 2, Unit: price(150)},
				{Min: 3, Max: 8, Unit: price(120)},
			},
		},
	})
}

// CoercePartySize turns raw form input into a usable party size. Anything
// unparseable or below 1 becomes 1. Intentional leniency: a missing field
// on the public form quotes for a single traveller instead of erroring.
func CoercePartySize(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Quote computes the price for a party on a tour. The tour id is slug
// normalized first so display names like "Zipaquirá" resolve too.
func (s *Schedule) Quote(tourID string, people int) (*Quote, error) {
	if people < 1 {
		people = 1
	}
	tour, ok := s.tours[slug.Make(tourID)]
	if !ok {
		return nil, ErrUnknownTour
	}
	if people > tour.MaxGroup {
		return nil, &GroupTooLargeError{Max: tour.MaxGroup}
	}
	for _, tier := range tour.Tiers {
		if tier.Min <= people && people <= tier.Max {
			unit := tier.Unit.Mul(s.fx).Round(2)
			total := unit.Mul(decimal.NewFromInt(int64(people))).Round(2)
			return &Quote{
				Tour:     tour.ID,
				People:   people,
				Currency: s.currency,
				Unit:     unit,
				Total:    total,
			}, nil
		}
	}
	// unreachable for a well-formed schedule, tiers partition [1, MaxGroup]
	return nil, fmt.Errorf("no price tier covers %d people on %s", people, tour.ID)
}

// TourName returns the display name for a known tour id, or the id itself.
func (s *Schedule) TourName(tourID string) string {
	if tour, ok := s.tours[slug.Make(tourID)]; ok {
		return tour.Name
	}
	return tourID
}
