package store

import (
	"fmt"

	"github.com/kilupskalvis/sitestore/internal/models"
)

// Collection is a typed handle on one persisted collection. Records keep
// insertion order; IDs are unique within a collection.
type Collection[T models.Record] struct {
	s      *Store
	key    Key
	entity string
}

func newCollection[T models.Record](s *Store, key Key, entity string) Collection[T] {
	return Collection[T]{s: s, key: key, entity: entity}
}

func (s *Store) Services() Collection[models.Service] {
	return newCollection[models.Service](s, KeyServices, "service")
}

func (s *Store) Team() Collection[models.TeamMember] {
	return newCollection[models.TeamMember](s, KeyTeam, "team_member")
}

func (s *Store) Testimonials() Collection[models.Testimonial] {
	return newCollection[models.Testimonial](s, KeyTestimonials, "testimonial")
}

func (s *Store) Jobs() Collection[models.Job] {
	return newCollection[models.Job](s, KeyJobs, "job")
}

func (s *Store) Users() Collection[models.User] {
	return newCollection[models.User](s, KeyUsers, "user")
}

func (s *Store) Contacts() Collection[models.Contact] {
	return newCollection[models.Contact](s, KeyContacts, "contact")
}

func (s *Store) Subscribers() Collection[models.Subscriber] {
	return newCollection[models.Subscriber](s, KeyNewsletter, "subscriber")
}

func (s *Store) Applications() Collection[models.Application] {
	return newCollection[models.Application](s, KeyApplications, "application")
}

// All returns every record, or an empty slice when nothing is stored.
func (c Collection[T]) All() []T {
	v := GetCollection(c.s, c.key, []T{})
	if v == nil {
		return []T{}
	}
	return v
}

// Get returns the record with the given id.
func (c Collection[T]) Get(id string) (T, bool) {
	for _, r := range c.All() {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Replace atomically replaces the whole collection and emits its topic.
func (c Collection[T]) Replace(recs []T) error {
	if recs == nil {
		recs = []T{}
	}
	return SetCollection(c.s, c.key, recs)
}

// Add appends rec. The caller assigns the id (see models.NewID).
func (c Collection[T]) Add(rec T) error {
	id := rec.RecordID()
	if id == "" {
		return fmt.Errorf("add %s: %w", c.entity, ErrMissingID)
	}

	all := c.All()
	if indexOf(all, id) >= 0 {
		return fmt.Errorf("add %s %q: %w", c.entity, id, ErrDuplicateID)
	}
	if err := c.Replace(append(all, rec)); err != nil {
		return err
	}

	c.s.logChange(models.ActionCreate, c.entity, rec)
	return nil
}

// Update merges patch onto the record with the given id and returns the result.
func (c Collection[T]) Update(id string, patch models.Patch[T]) (T, error) {
	var zero T

	all := c.All()
	i := indexOf(all, id)
	if i < 0 {
		return zero, fmt.Errorf("update %s %q: %w", c.entity, id, ErrNotFound)
	}

	before := all[i]
	updated := before
	patch.Apply(&updated)
	if updated.RecordID() != id {
		return zero, fmt.Errorf("update %s %q: patch changed the record id", c.entity, id)
	}

	all[i] = updated
	if err := c.Replace(all); err != nil {
		return zero, err
	}

	c.s.logChange(updateAction(before, updated), c.entity, updated)
	return updated, nil
}

// Delete removes the record with the given id. Deleting an unknown id is a
// no-op and reports false.
func (c Collection[T]) Delete(id string) (bool, error) {
	all := c.All()
	i := indexOf(all, id)
	if i < 0 {
		return false, nil
	}

	removed := all[i]
	rest := make([]T, 0, len(all)-1)
	rest = append(rest, all[:i]...)
	rest = append(rest, all[i+1:]...)
	if err := c.Replace(rest); err != nil {
		return false, err
	}

	c.s.logChange(models.ActionDelete, c.entity, removed)
	return true, nil
}

func indexOf[T models.Record](recs []T, id string) int {
	for i, r := range recs {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

// updateAction reports activate/deactivate when only the active flag's
// direction matters, else update.
func updateAction[T models.Record](before, after T) models.Action {
	b, ok1 := any(before).(models.Activatable)
	a, ok2 := any(after).(models.Activatable)
	if ok1 && ok2 && b.IsActive() != a.IsActive() {
		if a.IsActive() {
			return models.ActionActivate
		}
		return models.ActionDeactivate
	}
	return models.ActionUpdate
}
