package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, bird, rabbit, fish, reptile, hamster, other
type Species string

const (
	SpeciesDog     Species = "dog"
	SpeciesCat     Species = "cat"
	SpeciesBird    Species = "bird"
	SpeciesRabbit  Species = "rabbit"
	SpeciesFish    Species = "fish"
	SpeciesReptile Species = "reptile"
	SpeciesHamster Species = "hamster"
	SpeciesOther   Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesFish, SpeciesReptile, SpeciesHamster, SpeciesOther:
		return true
	}
	return false
}

// Pet representa el perfil básico de una mascota.
// Los opcionales son punteros: ausente se persiste como ausente, no como cero.
type Pet struct {
	ID string `json:"id"`

	Name    string  `json:"name"`
	Species Species `json:"species"`
	Breed   *string `json:"breed,omitempty"`

	BirthDate *time.Time `json:"birth_date,omitempty"`
	Weight    *float64   `json:"weight,omitempty"` // kg, > 0

	Notes *string `json:"notes,omitempty"`

	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Age es la edad calendario completa.
type Age struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

// Age calcula la edad a now; ok=false si no hay fecha de nacimiento.
func (p Pet) Age(now time.Time) (Age, bool) {
	if p.BirthDate == nil {
		return Age{}, false
	}
	b := p.BirthDate.In(now.Location())
	if b.After(now) {
		return Age{}, true
	}

	months := (now.Year()-b.Year())*12 + int(now.Month()) - int(b.Month())
	if now.Day() < b.Day() {
		months--
	}
	return Age{Years: months / 12, Months: months % 12}, true
}
