// Package optional modela campos de PATCH donde "no enviado" y "enviado como null"
// significan cosas distintas.
package optional

import "encoding/json"

// Patch: Present=false no toca el valor; Present=true con Value=nil lo limpia.
type Patch[T any] struct {
	Present bool
	Value   *T
}

func Set[T any](v T) Patch[T] { return Patch[T]{Present: true, Value: &v} }

func Clear[T any]() Patch[T] { return Patch[T]{Present: true} }

// UnmarshalJSON sólo corre si la clave vino en el body, así que marca Present.
func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	p.Present = true
	if string(b) == "null" {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

// Apply devuelve el nuevo valor del campo dado el actual.
func (p Patch[T]) Apply(cur *T) *T {
	if !p.Present {
		return cur
	}
	if p.Value == nil {
		return nil
	}
	v := *p.Value
	return &v
}
