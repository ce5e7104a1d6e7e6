// Package geocode resolves place names to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/mr1hm/disaster-scout/internal/models"
)

var (
	ErrNotFound = errors.New("location not found")
	ErrService  = errors.New("geocoding service error")
)

type Geocoder interface {
	Geocode(ctx context.Context, name string) (models.Coordinates, error)
}

type Error struct {
	Kind error
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("geocode %q: %s", e.Name, e.Kind)
	}
	return fmt.Sprintf("geocode %q: %s: %s", e.Name, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
