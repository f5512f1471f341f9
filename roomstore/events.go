package roomstore

type EventType string

const (
	EventRoomUpdated         EventType = "room.updated"
	EventRoomRemoved         EventType = "room.removed"
	EventPeriodicRoomUpdated EventType = "periodic_room.updated"
)

// Event describes one completed cache mutation: which record changed and,
// for merges, which fields the partial touched. Events are delivered
// synchronously, after the mutation is fully applied.
type Event struct {
	Type         EventType
	RoomUUID     string
	PeriodicUUID string
	Fields       []string
}

// Subscribe registers fn for every subsequent cache mutation and returns a
// function that removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// publish must be called without the store mutex held; subscribers may read
// back from the store.
func (s *Store) publish(events ...Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
