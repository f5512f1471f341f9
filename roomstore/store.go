// Package roomstore mirrors server-side room resources into an in-memory
// observable cache. Every operation delegates the network call to the API
// collaborator, folds the response into the cache through a single
// field-wise merge primitive, and notifies subscribers once the mutation is
// fully applied.
package roomstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	parley "github.com/parleyhq/parley-go"
	"github.com/parleyhq/parley-go/session"
	"go.uber.org/zap"
)

// ErrAuthenticationRequired is returned by operations that need a signed-in
// user, before any network call is made. It is never retried automatically.
var ErrAuthenticationRequired = errors.New("authentication required")

const defaultPageSize = 50

type Store struct {
	api     API
	session Session
	prefs   Preferences

	logger   *zap.Logger
	pageSize int
	now      func() time.Time

	mu            sync.RWMutex
	rooms         map[string]*RoomRecord
	periodicRooms map[string]*PeriodicRoomRecord
	hasMore       map[Category]bool

	// fetching serializes pagination across all categories: it is held for
	// the whole read-compute-fetch-merge sequence, not just the round trip.
	fetching atomic.Bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides the time source used to classify rooms into the today
// category.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(api API, sess Session, prefs Preferences, opts ...Option) *Store {
	s := &Store{
		api:           api,
		session:       sess,
		prefs:         prefs,
		logger:        zap.NewNop(),
		pageSize:      defaultPageSize,
		now:           time.Now,
		rooms:         make(map[string]*RoomRecord),
		periodicRooms: make(map[string]*PeriodicRoomRecord),
		hasMore: map[Category]bool{
			CategoryAll:      true,
			CategoryHistory:  true,
			CategoryPeriodic: true,
			CategoryToday:    true,
		},
		subs: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Room returns a snapshot of one cached room. The snapshot is a copy;
// readers never observe a partially applied merge.
func (s *Store) Room(roomUUID string) (*RoomRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rooms[roomUUID]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// PeriodicRoom returns a snapshot of one cached periodic series.
func (s *Store) PeriodicRoom(periodicUUID string) (*PeriodicRoomRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.periodicRooms[periodicUUID]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// HasMoreRooms reports whether pagination for the category may still yield
// further pages.
func (s *Store) HasMoreRooms(category Category) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore[category]
}

// CreateRoom schedules an ordinary room, remembers the chosen region as the
// user's preference and caches the new record. Returns the room UUID.
func (s *Store) CreateRoom(ctx context.Context, params parley.CreateRoomParams) (string, error) {
	if s.session.UserUUID() == "" {
		return "", ErrAuthenticationRequired
	}

	res, err := s.api.CreateRoom(ctx, params)
	if err != nil {
		return "", err
	}

	s.prefs.SetRegion(params.Region)

	s.UpdateRoom(res.RoomUUID, s.session.UserUUID(), RoomPartial{
		Title:      ptr(params.Title),
		RoomType:   ptr(params.Type),
		Region:     ptr(params.Region),
		BeginTime:  ptr(params.BeginTime),
		EndTime:    ptr(params.EndTime),
		InviteCode: ptr(res.InviteCode),
	})

	s.logger.Debug("created room", zap.String("roomUUID", res.RoomUUID))
	return res.RoomUUID, nil
}

// CreatePeriodicRoom schedules a recurring series and remembers the region.
// The result is not cached: the series and member UUIDs are unknown at this
// call site, so a later ListRooms or SyncPeriodicRoomInfo populates them.
func (s *Store) CreatePeriodicRoom(ctx context.Context, params parley.CreatePeriodicRoomParams) error {
	if err := s.api.CreatePeriodicRoom(ctx, params); err != nil {
		return err
	}

	s.prefs.SetRegion(params.Region)
	return nil
}

// JoinRoom resolves an invite code, room UUID or series UUID into a
// joinable room. Fresh session and media tokens from the response are
// forwarded to the session collaborator, and a minimal record is merged so
// the room is known to the cache before any full sync.
func (s *Store) JoinRoom(ctx context.Context, identifier string) (*parley.JoinRoomResponse, error) {
	res, err := s.api.JoinRoom(ctx, identifier)
	if err != nil {
		return nil, err
	}

	s.session.UpdateTokens(session.Tokens{
		SessionToken:    res.SessionToken,
		MediaToken:      res.MediaToken,
		WhiteboardToken: res.WhiteboardToken,
	})

	s.UpdateRoom(res.RoomUUID, res.OwnerUUID, RoomPartial{
		RoomType: ptr(res.RoomType),
	})

	return res, nil
}

// ListRooms refreshes page one of a category and merges every returned
// record. It always fetches page one regardless of pagination state; use
// FetchMoreRooms to append. Returns the room UUIDs in server order.
func (s *Store) ListRooms(ctx context.Context, category Category) ([]string, error) {
	items, err := s.api.ListRooms(ctx, category, 1)
	if err != nil {
		return nil, err
	}

	uuids, events := s.mergeListItems(items)
	s.publish(events...)

	return uuids, nil
}

// FetchMoreRooms requests the next page of a category, deriving the page
// number from how many cached rooms currently fall into it. It no-ops when
// another fetch is in flight (for any category), when the category's last
// page came back partial, or when a previous fetch exhausted the listing.
// A failed fetch leaves all pagination state untouched so the next call
// retries the same page.
func (s *Store) FetchMoreRooms(ctx context.Context, category Category) error {
	if !s.fetching.CompareAndSwap(false, true) {
		return nil
	}
	defer s.fetching.Store(false)

	s.mu.RLock()
	count := len(categorize(s.rooms, s.now())[category])
	hasMore := s.hasMore[category]
	s.mu.RUnlock()

	// A partial page means the listing end was already observed.
	if count%s.pageSize != 0 || !hasMore {
		return nil
	}
	page := count/s.pageSize + 1

	items, err := s.api.ListRooms(ctx, category, page)
	if err != nil {
		s.logger.Warn("pagination fetch failed",
			zap.String("category", string(category)),
			zap.Int("page", page),
			zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.hasMore[category] = len(items) > 0
	s.mu.Unlock()

	_, events := s.mergeListItems(items)
	s.publish(events...)

	return nil
}

// CancelRoom cancels an upcoming room and, on success, removes it from the
// cache. Periodic series member lists are left as they are, including any
// reference to the removed room.
func (s *Store) CancelRoom(ctx context.Context, params parley.CancelRoomParams) error {
	if err := s.api.CancelRoom(ctx, params); err != nil {
		return err
	}

	if params.RoomUUID == "" {
		return nil
	}

	s.mu.Lock()
	_, existed := s.rooms[params.RoomUUID]
	delete(s.rooms, params.RoomUUID)
	s.mu.Unlock()

	if existed {
		s.publish(Event{Type: EventRoomRemoved, RoomUUID: params.RoomUUID})
	}
	return nil
}

// SyncRoomInfo fetches a full snapshot of one ordinary room and merges it.
func (s *Store) SyncRoomInfo(ctx context.Context, roomUUID string) error {
	res, err := s.api.RoomInfo(ctx, roomUUID)
	if err != nil {
		return err
	}

	s.UpdateRoom(roomUUID, res.RoomInfo.OwnerUUID, partialFromRoomInfo(res.RoomInfo))
	return nil
}

// SyncPeriodicRoomInfo fetches a series and fans it out: a record for every
// member room is written under the canonical series metadata before the
// series-level record itself, so member UUIDs always resolve.
func (s *Store) SyncPeriodicRoomInfo(ctx context.Context, periodicUUID string) error {
	res, err := s.api.PeriodicRoomInfo(ctx, periodicUUID)
	if err != nil {
		return err
	}

	s.UpdatePeriodicRoom(periodicUUID, res)
	return nil
}

// SyncPeriodicSubRoomInfo fetches one member room of a series, including
// the begin/end timestamps of its neighboring occurrences when requested.
func (s *Store) SyncPeriodicSubRoomInfo(ctx context.Context, params parley.PeriodicSubRoomInfoParams) error {
	res, err := s.api.PeriodicSubRoomInfo(ctx, params)
	if err != nil {
		return err
	}

	partial := partialFromRoomInfo(res.RoomInfo)
	partial.PreviousPeriodicRoomBeginTime = ptr(res.PreviousPeriodicRoomBeginTime)
	partial.NextPeriodicRoomEndTime = ptr(res.NextPeriodicRoomEndTime)

	s.UpdateRoom(params.RoomUUID, res.RoomInfo.OwnerUUID, partial)
	return nil
}

// SyncRecordInfo fetches the recording segments of a room, forwards the
// replay tokens to the session collaborator and merges the segments.
func (s *Store) SyncRecordInfo(ctx context.Context, roomUUID string) error {
	res, err := s.api.RecordInfo(ctx, roomUUID)
	if err != nil {
		return err
	}

	s.session.UpdateTokens(session.Tokens{
		SessionToken:    res.SessionToken,
		MediaToken:      res.MediaToken,
		WhiteboardToken: res.WhiteboardToken,
	})

	recordings := make([]RecordingSegment, 0, len(res.RecordInfo))
	for _, seg := range res.RecordInfo {
		recordings = append(recordings, RecordingSegment{
			BeginTime: seg.BeginTime,
			EndTime:   seg.EndTime,
			FileURL:   seg.FileURL,
		})
	}

	s.UpdateRoom(roomUUID, res.OwnerUUID, RoomPartial{
		Title:      ptr(res.Title),
		RoomType:   ptr(res.RoomType),
		HasRecord:  ptr(true),
		Recordings: recordings,
	})
	return nil
}

// UpdateRoom is the merge primitive every operation goes through. A missing
// record is created from the partial plus the supplied identifiers; an
// existing one has exactly the present fields overwritten. The room UUID is
// immutable, and a non-empty ownerUUID overwrites the cached owner.
func (s *Store) UpdateRoom(roomUUID, ownerUUID string, partial RoomPartial) {
	s.mu.Lock()
	fields := s.mergeRoomLocked(roomUUID, ownerUUID, partial)
	s.mu.Unlock()

	s.publish(Event{Type: EventRoomUpdated, RoomUUID: roomUUID, Fields: fields})
}

// UpdatePeriodicRoom writes a record for every member room carrying the
// series-level fields (owner, title, type, invite code) merged with the
// member's own, then writes the series record with the ordered member list.
func (s *Store) UpdatePeriodicRoom(periodicUUID string, info *parley.PeriodicRoomInfoResponse) {
	events := make([]Event, 0, len(info.Rooms)+1)

	s.mu.Lock()
	memberUUIDs := make([]string, 0, len(info.Rooms))
	for _, sub := range info.Rooms {
		partial := RoomPartial{
			OwnerName:    ptr(info.Periodic.OwnerName),
			InviteCode:   ptr(info.Periodic.InviteCode),
			Title:        ptr(info.Periodic.Title),
			RoomType:     ptr(info.Periodic.RoomType),
			PeriodicUUID: ptr(periodicUUID),
			BeginTime:    ptr(sub.BeginTime),
			EndTime:      ptr(sub.EndTime),
			RoomStatus:   ptr(sub.RoomStatus),
		}
		fields := s.mergeRoomLocked(sub.RoomUUID, info.Periodic.OwnerUUID, partial)
		memberUUIDs = append(memberUUIDs, sub.RoomUUID)
		events = append(events, Event{Type: EventRoomUpdated, RoomUUID: sub.RoomUUID, Fields: fields})
	}

	s.periodicRooms[periodicUUID] = &PeriodicRoomRecord{
		PeriodicUUID: periodicUUID,
		Periodic:     info.Periodic,
		Rooms:        memberUUIDs,
		InviteCode:   info.Periodic.InviteCode,
	}
	s.mu.Unlock()

	events = append(events, Event{Type: EventPeriodicRoomUpdated, PeriodicUUID: periodicUUID})
	s.publish(events...)
}

// ApplyNotification folds a server-pushed room change into the cache.
// Cancellation removes the room locally; every other type merges the
// partial carried in the message.
func (s *Store) ApplyNotification(msg parley.RoomNotification) {
	if msg.RoomUUID == "" {
		return
	}

	if msg.Type == parley.NotificationRoomCancelled {
		s.mu.Lock()
		_, existed := s.rooms[msg.RoomUUID]
		delete(s.rooms, msg.RoomUUID)
		s.mu.Unlock()

		if existed {
			s.publish(Event{Type: EventRoomRemoved, RoomUUID: msg.RoomUUID})
		}
		return
	}

	partial := partialFromWire(msg.Data)
	switch msg.Type {
	case parley.NotificationRoomStarted:
		partial.RoomStatus = ptr(parley.RoomStatusStarted)
	case parley.NotificationRoomStopped:
		partial.RoomStatus = ptr(parley.RoomStatusStopped)
	}

	s.UpdateRoom(msg.RoomUUID, "", partial)
}

func (s *Store) mergeRoomLocked(roomUUID, ownerUUID string, partial RoomPartial) []string {
	rec, ok := s.rooms[roomUUID]
	if !ok {
		rec = &RoomRecord{RoomUUID: roomUUID}
		s.rooms[roomUUID] = rec
	}
	if ownerUUID != "" {
		rec.OwnerUUID = ownerUUID
	}
	return partial.apply(rec)
}

func (s *Store) mergeListItems(items []parley.ListRoomItem) ([]string, []Event) {
	uuids := make([]string, 0, len(items))
	events := make([]Event, 0, len(items))

	s.mu.Lock()
	for _, item := range items {
		fields := s.mergeRoomLocked(item.RoomUUID, item.OwnerUUID, partialFromListItem(item))
		uuids = append(uuids, item.RoomUUID)
		events = append(events, Event{Type: EventRoomUpdated, RoomUUID: item.RoomUUID, Fields: fields})
	}
	s.mu.Unlock()

	return uuids, events
}
