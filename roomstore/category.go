package roomstore

import (
	"sort"
	"time"

	parley "github.com/parleyhq/parley-go"
)

// Category partitions cached rooms the same way the server-side listings
// do. The four categories are not mutually exclusive: a non-terminal
// periodic room beginning today shows up in all, today and periodic.
type Category = parley.ListCategory

const (
	CategoryAll      = parley.ListCategoryAll
	CategoryHistory  = parley.ListCategoryHistory
	CategoryPeriodic = parley.ListCategoryPeriodic
	CategoryToday    = parley.ListCategoryToday
)

// Categories lists every category, in a stable order.
var Categories = []Category{CategoryAll, CategoryHistory, CategoryPeriodic, CategoryToday}

// RoomUUIDsByCategory recomputes the category partition of every cached
// room. It is a pure function of current cache state; calling it has no
// side effects and repeated calls agree until the next mutation.
//
// history holds terminal (stopped) rooms, most recent first. all, today and
// periodic hold non-terminal rooms ordered by begin time; a room with no
// begin time yet counts as beginning now.
func (s *Store) RoomUUIDsByCategory() map[Category][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categorize(s.rooms, s.now())
}

func categorize(rooms map[string]*RoomRecord, now time.Time) map[Category][]string {
	recs := make([]*RoomRecord, 0, len(rooms))
	for _, rec := range rooms {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.BeginTime != b.BeginTime {
			return a.BeginTime < b.BeginTime
		}
		return a.RoomUUID < b.RoomUUID
	})

	out := map[Category][]string{
		CategoryAll:      {},
		CategoryHistory:  {},
		CategoryPeriodic: {},
		CategoryToday:    {},
	}

	for _, rec := range recs {
		if rec.RoomStatus == parley.RoomStatusStopped {
			out[CategoryHistory] = append(out[CategoryHistory], rec.RoomUUID)
			continue
		}

		out[CategoryAll] = append(out[CategoryAll], rec.RoomUUID)

		begin := now
		if rec.BeginTime != 0 {
			begin = time.UnixMilli(rec.BeginTime)
		}
		if sameDay(begin, now) {
			out[CategoryToday] = append(out[CategoryToday], rec.RoomUUID)
		}

		if rec.PeriodicUUID != "" {
			out[CategoryPeriodic] = append(out[CategoryPeriodic], rec.RoomUUID)
		}
	}

	// Most recent first for history.
	hist := out[CategoryHistory]
	for i, j := 0, len(hist)-1; i < j; i, j = i+1, j-1 {
		hist[i], hist[j] = hist[j], hist[i]
	}

	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
