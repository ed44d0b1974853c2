package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kilupskalvis/sitestore/internal/models"
	"github.com/kilupskalvis/sitestore/internal/store"
)

// collectionView adapts one typed collection to the list and delete commands.
type collectionView struct {
	header table.Row
	rows   func(st *store.Store) []table.Row
	all    func(st *store.Store) any
	delete func(st *store.Store, id string) (bool, error)
}

func newView[T models.Record](coll func(*store.Store) store.Collection[T], header table.Row, row func(T) table.Row) collectionView {
	return collectionView{
		header: header,
		rows: func(st *store.Store) []table.Row {
			recs := coll(st).All()
			out := make([]table.Row, 0, len(recs))
			for _, r := range recs {
				out = append(out, row(r))
			}
			return out
		},
		all:    func(st *store.Store) any { return coll(st).All() },
		delete: func(st *store.Store, id string) (bool, error) { return coll(st).Delete(id) },
	}
}

func activeMark(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}

var collectionViews = map[string]collectionView{
	"services": newView((*store.Store).Services,
		table.Row{"ID", "Title", "Price", "Active", "Created"},
		func(s models.Service) table.Row {
			return table.Row{s.ID, truncate(s.Title, 40), s.Price, activeMark(s.Active), formatTime(s.CreatedAt)}
		}),
	"team": newView((*store.Store).Team,
		table.Row{"ID", "Name", "Role", "Order"},
		func(m models.TeamMember) table.Row {
			return table.Row{m.ID, m.Name, m.Role, m.Order}
		}),
	"testimonials": newView((*store.Store).Testimonials,
		table.Row{"ID", "Author", "Rating", "Active", "Content"},
		func(t models.Testimonial) table.Row {
			return table.Row{t.ID, t.Author, t.Rating, activeMark(t.Active), truncate(t.Content, 40)}
		}),
	"jobs": newView((*store.Store).Jobs,
		table.Row{"ID", "Title", "Location", "Active", "Posted"},
		func(j models.Job) table.Row {
			return table.Row{j.ID, truncate(j.Title, 40), j.Location, activeMark(j.Active), formatTime(j.PostedAt)}
		}),
	"users": newView((*store.Store).Users,
		table.Row{"ID", "Username", "Role", "Active", "Last login"},
		func(u models.User) table.Row {
			last := "-"
			if u.LastLoginAt != nil {
				last = formatTime(*u.LastLoginAt)
			}
			return table.Row{u.ID, u.Username, u.Role, activeMark(u.Active), last}
		}),
	"contacts": newView((*store.Store).Contacts,
		table.Row{"ID", "Name", "Email", "Status", "Submitted"},
		func(c models.Contact) table.Row {
			return table.Row{c.ID, c.Name, c.Email, c.Status, formatTime(c.SubmittedAt)}
		}),
	"newsletter": newView((*store.Store).Subscribers,
		table.Row{"ID", "Email", "Phone", "Subscribed"},
		func(s models.Subscriber) table.Row {
			return table.Row{s.ID, s.Email, s.Phone, formatTime(s.SubscribedAt)}
		}),
	"applications": newView((*store.Store).Applications,
		table.Row{"ID", "Name", "Job", "Status", "Applied"},
		func(a models.Application) table.Row {
			return table.Row{a.ID, a.Name, a.JobTitle, a.Status, formatTime(a.AppliedAt)}
		}),
}

func collectionNames() []string {
	names := make([]string, 0, len(collectionViews))
	for name := range collectionViews {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupView(name string) (collectionView, error) {
	v, ok := collectionViews[strings.ToLower(name)]
	if !ok {
		return collectionView{}, fmt.Errorf("unknown collection %q (one of: %s)", name, strings.Join(collectionNames(), ", "))
	}
	return v, nil
}
