// Package users holds the fixed directory of users the API can look up.
package users

import (
	"context"
	"errors"

	"github.com/circleci/restclass/o11y"
)

// ErrNotFound is a warning since asking for an unknown user is an expected outcome.
var ErrNotFound = o11y.NewWarning("user not found")

type User struct {
	ID   int64
	Name string
}

// Directory is an immutable id to name lookup, safe for concurrent use.
type Directory struct {
	names map[int64]string
}

// New copies names, so later changes to the map are not seen by the directory.
func New(names map[int64]string) *Directory {
	d := &Directory{names: make(map[int64]string, len(names))}
	for id, name := range names {
		d.names[id] = name
	}
	return d
}

// Default returns the directory the API serves.
func Default() *Directory {
	return New(map[int64]string{
		1: "Marcos",
		2: "Paula",
		3: "Alberto R",
		4: "Alberto F",
		5: "Isabel",
	})
}

func (d *Directory) Lookup(ctx context.Context, id int64) (_ User, err error) {
	_, span := o11y.StartSpan(ctx, "users: lookup")
	defer o11y.End(span, &err)
	span.AddField("user_id", id)

	name, ok := d.names[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return User{ID: id, Name: name}, nil
}

func (d *Directory) Len() int {
	return len(d.names)
}

// HealthChecks satisfies system.HealthChecker, the directory is ready once it has users.
func (d *Directory) HealthChecks() (name string, ready, live func(ctx context.Context) error) {
	return "users", func(ctx context.Context) error {
		if d.Len() == 0 {
			return errors.New("no users loaded")
		}
		return nil
	}, nil
}
