package roomstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	parley "github.com/parleyhq/parley-go"
	"github.com/parleyhq/parley-go/roomstore"
	"github.com/parleyhq/parley-go/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu        sync.Mutex
	listCalls []listCall

	createFn     func(parley.CreateRoomParams) (*parley.CreateRoomResponse, error)
	createPerFn  func(parley.CreatePeriodicRoomParams) error
	joinFn       func(string) (*parley.JoinRoomResponse, error)
	listFn       func(roomstore.Category, int) ([]parley.ListRoomItem, error)
	cancelFn     func(parley.CancelRoomParams) error
	infoFn       func(string) (*parley.RoomInfoResponse, error)
	periodicFn   func(string) (*parley.PeriodicRoomInfoResponse, error)
	subRoomFn    func(parley.PeriodicSubRoomInfoParams) (*parley.PeriodicSubRoomInfoResponse, error)
	recordInfoFn func(string) (*parley.RecordInfoResponse, error)
}

type listCall struct {
	category roomstore.Category
	page     int
}

func (f *fakeAPI) CreateRoom(_ context.Context, params parley.CreateRoomParams) (*parley.CreateRoomResponse, error) {
	return f.createFn(params)
}

func (f *fakeAPI) CreatePeriodicRoom(_ context.Context, params parley.CreatePeriodicRoomParams) error {
	return f.createPerFn(params)
}

func (f *fakeAPI) JoinRoom(_ context.Context, identifier string) (*parley.JoinRoomResponse, error) {
	return f.joinFn(identifier)
}

func (f *fakeAPI) ListRooms(_ context.Context, category roomstore.Category, page int) ([]parley.ListRoomItem, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, listCall{category, page})
	f.mu.Unlock()
	return f.listFn(category, page)
}

func (f *fakeAPI) CancelRoom(_ context.Context, params parley.CancelRoomParams) error {
	return f.cancelFn(params)
}

func (f *fakeAPI) RoomInfo(_ context.Context, roomUUID string) (*parley.RoomInfoResponse, error) {
	return f.infoFn(roomUUID)
}

func (f *fakeAPI) PeriodicRoomInfo(_ context.Context, periodicUUID string) (*parley.PeriodicRoomInfoResponse, error) {
	return f.periodicFn(periodicUUID)
}

func (f *fakeAPI) PeriodicSubRoomInfo(_ context.Context, params parley.PeriodicSubRoomInfoParams) (*parley.PeriodicSubRoomInfoResponse, error) {
	return f.subRoomFn(params)
}

func (f *fakeAPI) RecordInfo(_ context.Context, roomUUID string) (*parley.RecordInfoResponse, error) {
	return f.recordInfoFn(roomUUID)
}

func (f *fakeAPI) listCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

type fakeSession struct {
	mu       sync.Mutex
	userUUID string
	updates  []session.Tokens
}

func (f *fakeSession) UserUUID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userUUID
}

func (f *fakeSession) UpdateTokens(tokens session.Tokens) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, tokens)
}

type fakePrefs struct {
	mu      sync.Mutex
	regions []string
}

func (f *fakePrefs) SetRegion(region string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions = append(f.regions, region)
}

var fixedNow = time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

func newStore(api *fakeAPI, opts ...roomstore.Option) (*roomstore.Store, *fakeSession, *fakePrefs) {
	sess := &fakeSession{userUUID: "user-1"}
	prefs := &fakePrefs{}
	opts = append([]roomstore.Option{
		roomstore.WithLogger(zap.NewNop()),
		roomstore.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return roomstore.New(api, sess, prefs, opts...), sess, prefs
}

func sptr(s string) *string { return &s }

func TestUpdateRoom_CreateThenIdempotentMerge(t *testing.T) {
	store, _, _ := newStore(&fakeAPI{})

	partial := roomstore.RoomPartial{
		Title:  sptr("standup"),
		Region: sptr("eu-west"),
	}

	store.UpdateRoom("room-1", "owner-1", partial)

	rec, ok := store.Room("room-1")
	require.True(t, ok)
	assert.Equal(t, "room-1", rec.RoomUUID)
	assert.Equal(t, "owner-1", rec.OwnerUUID)
	assert.Equal(t, "standup", rec.Title)
	assert.Equal(t, "eu-west", rec.Region)

	store.UpdateRoom("room-1", "owner-1", partial)

	again, ok := store.Room("room-1")
	require.True(t, ok)
	assert.Equal(t, rec, again)
}

func TestUpdateRoom_UnlistedFieldsSurvive(t *testing.T) {
	store, _, _ := newStore(&fakeAPI{})

	store.UpdateRoom("room-1", "owner-1", roomstore.RoomPartial{
		Title:  sptr("A"),
		Region: sptr("X"),
	})
	store.UpdateRoom("room-1", "", roomstore.RoomPartial{
		Title: sptr("B"),
	})

	rec, ok := store.Room("room-1")
	require.True(t, ok)
	assert.Equal(t, "B", rec.Title)
	assert.Equal(t, "X", rec.Region)
	assert.Equal(t, "owner-1", rec.OwnerUUID)
}

func statusPtr(s parley.RoomStatus) *parley.RoomStatus { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestRoomUUIDsByCategory_TerminalRoomsOnlyInHistory(t *testing.T) {
	store, _, _ := newStore(&fakeAPI{})

	store.UpdateRoom("stopped-1", "o", roomstore.RoomPartial{
		RoomStatus:   statusPtr(parley.RoomStatusStopped),
		PeriodicUUID: sptr("series-1"),
		BeginTime:    int64Ptr(fixedNow.UnixMilli()),
	})
	store.UpdateRoom("idle-1", "o", roomstore.RoomPartial{
		RoomStatus: statusPtr(parley.RoomStatusIdle),
		BeginTime:  int64Ptr(fixedNow.UnixMilli()),
	})

	got := store.RoomUUIDsByCategory()
	assert.Equal(t, []string{"stopped-1"}, got[roomstore.CategoryHistory])
	assert.Equal(t, []string{"idle-1"}, got[roomstore.CategoryAll])
	assert.Equal(t, []string{"idle-1"}, got[roomstore.CategoryToday])
	assert.Empty(t, got[roomstore.CategoryPeriodic])
}

func TestRoomUUIDsByCategory_MissingBeginTimeCountsAsToday(t *testing.T) {
	store, _, _ := newStore(&fakeAPI{})

	store.UpdateRoom("room-1", "o", roomstore.RoomPartial{
		RoomStatus: statusPtr(parley.RoomStatusIdle),
	})
	store.UpdateRoom("room-2", "o", roomstore.RoomPartial{
		RoomStatus: statusPtr(parley.RoomStatusIdle),
		BeginTime:  int64Ptr(fixedNow.Add(48 * time.Hour).UnixMilli()),
	})

	got := store.RoomUUIDsByCategory()
	assert.Equal(t, []string{"room-1"}, got[roomstore.CategoryToday])
	assert.ElementsMatch(t, []string{"room-1", "room-2"}, got[roomstore.CategoryAll])
}

func listItems(uuids ...string) []parley.ListRoomItem {
	items := make([]parley.ListRoomItem, 0, len(uuids))
	for _, uuid := range uuids {
		items = append(items, parley.ListRoomItem{
			RoomUUID:   uuid,
			OwnerUUID:  "owner-1",
			Title:      "t-" + uuid,
			RoomStatus: parley.RoomStatusIdle,
			BeginTime:  fixedNow.UnixMilli(),
		})
	}
	return items
}

func TestListRooms_MergesAndReturnsServerOrder(t *testing.T) {
	api := &fakeAPI{
		listFn: func(_ roomstore.Category, page int) ([]parley.ListRoomItem, error) {
			require.Equal(t, 1, page)
			return listItems("b", "a"), nil
		},
	}
	store, _, _ := newStore(api)

	uuids, err := store.ListRooms(context.Background(), roomstore.CategoryAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, uuids)

	rec, ok := store.Room("a")
	require.True(t, ok)
	assert.Equal(t, "t-a", rec.Title)
	assert.Empty(t, rec.PeriodicUUID)
}

func TestFetchMoreRooms_NoopWhileFetchInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{
		listFn: func(roomstore.Category, int) ([]parley.ListRoomItem, error) {
			close(started)
			<-release
			return nil, nil
		},
	}
	store, _, _ := newStore(api, roomstore.WithPageSize(2))

	done := make(chan error, 1)
	go func() {
		done <- store.FetchMoreRooms(context.Background(), roomstore.CategoryAll)
	}()
	<-started

	before := store.RoomUUIDsByCategory()

	// Second call must return without touching the network, even for a
	// different category.
	require.NoError(t, store.FetchMoreRooms(context.Background(), roomstore.CategoryHistory))
	assert.Equal(t, 1, api.listCallCount())
	assert.Equal(t, before, store.RoomUUIDsByCategory())

	close(release)
	require.NoError(t, <-done)
}

func TestFetchMoreRooms_NoopAfterPartialPage(t *testing.T) {
	api := &fakeAPI{
		listFn: func(_ roomstore.Category, page int) ([]parley.ListRoomItem, error) {
			return listItems("a", "b"), nil
		},
	}
	store, _, _ := newStore(api, roomstore.WithPageSize(3))

	uuids, err := store.ListRooms(context.Background(), roomstore.CategoryAll)
	require.NoError(t, err)
	require.Len(t, uuids, 2)

	// Two cached rooms with page size three: the last page was partial, so
	// there is nothing further to fetch.
	require.NoError(t, store.FetchMoreRooms(context.Background(), roomstore.CategoryAll))
	assert.Equal(t, 1, api.listCallCount())
}

func TestFetchMoreRooms_PagesForwardUntilEmptyResponse(t *testing.T) {
	pages := map[int][]parley.ListRoomItem{
		1: listItems("a", "b"),
		2: listItems("c", "d"),
		3: {},
	}
	api := &fakeAPI{
		listFn: func(_ roomstore.Category, page int) ([]parley.ListRoomItem, error) {
			return pages[page], nil
		},
	}
	store, _, _ := newStore(api, roomstore.WithPageSize(2))

	require.NoError(t, store.FetchMoreRooms(context.Background(), roomstore.CategoryAll))
	require.NoError(t, store.FetchMoreRooms(context.Background(), roomstore.CategoryAll))
	require.NoError(t, store.FetchMoreRooms(context.Background(), roomstore.CategoryAll))

	assert.Equal(t, []listCall{
		{roomstore.CategoryAll, 1},
		{roomstore.CategoryAll, 2},
		{roomstore.CategoryAll, 3},
	}, api.listCalls)
	assert.False(t, store.HasMoreRooms(roomstore.CategoryAll))
	assert.Len(t, store.RoomUUIDsByCategory()[roomstore.CategoryAll], 4)

	// Exhausted: no further network calls.
	require.NoError(t, store.FetchMoreRooms(context.Background(), roomstore.CategoryAll))
	assert.Equal(t, 3, api.listCallCount())
}

func TestFetchMoreRooms_FailureKeepsStateAndAllowsRetry(t *testing.T) {
	transportErr := errors.New("connection reset")
	fail := true
	api := &fakeAPI{
		listFn: func(_ roomstore.Category, page int) ([]parley.ListRoomItem, error) {
			if fail {
				return nil, transportErr
			}
			return listItems("a"), nil
		},
	}
	store, _, _ := newStore(api, roomstore.WithPageSize(2))

	err := store.FetchMoreRooms(context.Background(), roomstore.CategoryAll)
	require.ErrorIs(t, err, transportErr)
	assert.True(t, store.HasMoreRooms(roomstore.CategoryAll))
	assert.Empty(t, store.RoomUUIDsByCategory()[roomstore.CategoryAll])

	fail = false
	require.NoError(t, store.FetchMoreRooms(context.Background(), roomstore.CategoryAll))
	assert.Equal(t, []listCall{
		{roomstore.CategoryAll, 1},
		{roomstore.CategoryAll, 1},
	}, api.listCalls)
}

func TestCreateRoom_RequiresAuthentication(t *testing.T) {
	called := false
	api := &fakeAPI{
		createFn: func(parley.CreateRoomParams) (*parley.CreateRoomResponse, error) {
			called = true
			return &parley.CreateRoomResponse{RoomUUID: "room-1"}, nil
		},
	}
	store, sess, _ := newStore(api)
	sess.userUUID = ""

	_, err := store.CreateRoom(context.Background(), parley.CreateRoomParams{Title: "x"})
	require.ErrorIs(t, err, roomstore.ErrAuthenticationRequired)
	assert.False(t, called, "no network call before the auth precondition")
}

func TestCreateRoom_CachesRecordAndRecordsRegion(t *testing.T) {
	api := &fakeAPI{
		createFn: func(params parley.CreateRoomParams) (*parley.CreateRoomResponse, error) {
			return &parley.CreateRoomResponse{RoomUUID: "room-9", InviteCode: "ABC123"}, nil
		},
	}
	store, _, prefs := newStore(api)

	uuid, err := store.CreateRoom(context.Background(), parley.CreateRoomParams{
		Title:  "retro",
		Type:   parley.RoomTypeSmallClass,
		Region: "ap-south",
	})
	require.NoError(t, err)
	assert.Equal(t, "room-9", uuid)
	assert.Equal(t, []string{"ap-south"}, prefs.regions)

	rec, ok := store.Room("room-9")
	require.True(t, ok)
	assert.Equal(t, "retro", rec.Title)
	assert.Equal(t, "user-1", rec.OwnerUUID)
	assert.Equal(t, "ABC123", rec.InviteCode)
}

func TestCreatePeriodicRoom_DoesNotCache(t *testing.T) {
	api := &fakeAPI{
		createPerFn: func(parley.CreatePeriodicRoomParams) error { return nil },
	}
	store, _, prefs := newStore(api)

	err := store.CreatePeriodicRoom(context.Background(), parley.CreatePeriodicRoomParams{
		Title:  "weekly",
		Region: "eu-central",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-central"}, prefs.regions)

	for _, uuids := range store.RoomUUIDsByCategory() {
		assert.Empty(t, uuids)
	}
}

func TestJoinRoom_ForwardsTokensAndMergesMinimalRecord(t *testing.T) {
	api := &fakeAPI{
		joinFn: func(identifier string) (*parley.JoinRoomResponse, error) {
			require.Equal(t, "INV42", identifier)
			return &parley.JoinRoomResponse{
				RoomUUID:     "room-3",
				OwnerUUID:    "owner-3",
				RoomType:     parley.RoomTypeBigClass,
				SessionToken: "sess-tok",
				MediaToken:   "media-tok",
			}, nil
		},
	}
	store, sess, _ := newStore(api)

	res, err := store.JoinRoom(context.Background(), "INV42")
	require.NoError(t, err)
	assert.Equal(t, "room-3", res.RoomUUID)

	require.Len(t, sess.updates, 1)
	assert.Equal(t, "sess-tok", sess.updates[0].SessionToken)
	assert.Equal(t, "media-tok", sess.updates[0].MediaToken)

	rec, ok := store.Room("room-3")
	require.True(t, ok)
	assert.Equal(t, "owner-3", rec.OwnerUUID)
	assert.Equal(t, parley.RoomTypeBigClass, rec.RoomType)
}

func TestCancelRoom_RemovesRoomButKeepsSeriesReferences(t *testing.T) {
	api := &fakeAPI{
		cancelFn: func(parley.CancelRoomParams) error { return nil },
	}
	store, _, _ := newStore(api)

	store.UpdatePeriodicRoom("series-1", &parley.PeriodicRoomInfoResponse{
		Periodic: parley.PeriodicInfo{
			PeriodicUUID: "series-1",
			OwnerUUID:    "owner-1",
			Title:        "weekly",
			InviteCode:   "WK1",
		},
		Rooms: []parley.PeriodicSubRoom{
			{RoomUUID: "sub-1"},
			{RoomUUID: "sub-2"},
		},
	})

	require.NoError(t, store.CancelRoom(context.Background(), parley.CancelRoomParams{RoomUUID: "sub-1"}))

	_, ok := store.Room("sub-1")
	assert.False(t, ok)

	series, ok := store.PeriodicRoom("series-1")
	require.True(t, ok)
	assert.Equal(t, []string{"sub-1", "sub-2"}, series.Rooms, "member list keeps the dangling reference")
}

func TestCancelRoom_FailureLeavesCacheUntouched(t *testing.T) {
	api := &fakeAPI{
		cancelFn: func(parley.CancelRoomParams) error { return errors.New("boom") },
	}
	store, _, _ := newStore(api)
	store.UpdateRoom("room-1", "o", roomstore.RoomPartial{Title: sptr("keep")})

	err := store.CancelRoom(context.Background(), parley.CancelRoomParams{RoomUUID: "room-1"})
	require.Error(t, err)

	_, ok := store.Room("room-1")
	assert.True(t, ok)
}

func TestUpdatePeriodicRoom_FansOutMemberRecords(t *testing.T) {
	store, _, _ := newStore(&fakeAPI{})

	store.UpdatePeriodicRoom("series-7", &parley.PeriodicRoomInfoResponse{
		Periodic: parley.PeriodicInfo{
			PeriodicUUID: "series-7",
			OwnerUUID:    "owner-7",
			OwnerName:    "Ada",
			Title:        "sync",
			RoomType:     parley.RoomTypeOneToOne,
			InviteCode:   "SYNC7",
		},
		Rooms: []parley.PeriodicSubRoom{
			{RoomUUID: "sub-a", BeginTime: 10, EndTime: 20},
			{RoomUUID: "sub-b", BeginTime: 30, EndTime: 40},
			{RoomUUID: "sub-c", BeginTime: 50, EndTime: 60},
		},
	})

	series, ok := store.PeriodicRoom("series-7")
	require.True(t, ok)
	assert.Equal(t, []string{"sub-a", "sub-b", "sub-c"}, series.Rooms)
	assert.Equal(t, "SYNC7", series.InviteCode)

	for _, uuid := range series.Rooms {
		rec, ok := store.Room(uuid)
		require.True(t, ok, "member %s must resolve", uuid)
		assert.Equal(t, "SYNC7", rec.InviteCode)
		assert.Equal(t, "sync", rec.Title)
		assert.Equal(t, "series-7", rec.PeriodicUUID)
		assert.Equal(t, "owner-7", rec.OwnerUUID)
		assert.Equal(t, "Ada", rec.OwnerName)
	}
}

func TestSyncRoomInfo_MergesSnapshot(t *testing.T) {
	api := &fakeAPI{
		infoFn: func(roomUUID string) (*parley.RoomInfoResponse, error) {
			require.Equal(t, "room-5", roomUUID)
			return &parley.RoomInfoResponse{
				RoomInfo: parley.RoomInfo{
					RoomUUID:   "room-5",
					OwnerUUID:  "owner-5",
					Title:      "design review",
					RoomType:   parley.RoomTypeSmallClass,
					RoomStatus: parley.RoomStatusStarted,
					Region:     "eu-west",
					BeginTime:  100,
					EndTime:    200,
					InviteCode: "DR5",
				},
			}, nil
		},
	}
	store, _, _ := newStore(api)

	require.NoError(t, store.SyncRoomInfo(context.Background(), "room-5"))

	rec, ok := store.Room("room-5")
	require.True(t, ok)
	assert.Equal(t, "owner-5", rec.OwnerUUID)
	assert.Equal(t, "design review", rec.Title)
	assert.Equal(t, parley.RoomStatusStarted, rec.RoomStatus)
	assert.Equal(t, "eu-west", rec.Region)
	assert.Equal(t, int64(100), rec.BeginTime)
	assert.Equal(t, "DR5", rec.InviteCode)
}

func TestSyncRoomInfo_PropagatesErrorWithoutCaching(t *testing.T) {
	apiErr := errors.New("gone")
	api := &fakeAPI{
		infoFn: func(string) (*parley.RoomInfoResponse, error) { return nil, apiErr },
	}
	store, _, _ := newStore(api)

	require.ErrorIs(t, store.SyncRoomInfo(context.Background(), "room-5"), apiErr)
	_, ok := store.Room("room-5")
	assert.False(t, ok)
}

func TestSyncPeriodicRoomInfo_CachesSeriesAndMembers(t *testing.T) {
	api := &fakeAPI{
		periodicFn: func(periodicUUID string) (*parley.PeriodicRoomInfoResponse, error) {
			require.Equal(t, "series-2", periodicUUID)
			return &parley.PeriodicRoomInfoResponse{
				Periodic: parley.PeriodicInfo{
					PeriodicUUID: "series-2",
					OwnerUUID:    "owner-2",
					Title:        "office hours",
					InviteCode:   "OH2",
				},
				Rooms: []parley.PeriodicSubRoom{
					{RoomUUID: "occ-1", BeginTime: 10, EndTime: 20},
					{RoomUUID: "occ-2", BeginTime: 30, EndTime: 40},
				},
			}, nil
		},
	}
	store, _, _ := newStore(api)

	require.NoError(t, store.SyncPeriodicRoomInfo(context.Background(), "series-2"))

	series, ok := store.PeriodicRoom("series-2")
	require.True(t, ok)
	assert.Equal(t, []string{"occ-1", "occ-2"}, series.Rooms)

	rec, ok := store.Room("occ-1")
	require.True(t, ok)
	assert.Equal(t, "office hours", rec.Title)
	assert.Equal(t, "series-2", rec.PeriodicUUID)
}

func TestSyncPeriodicRoomInfo_PropagatesErrorWithoutCaching(t *testing.T) {
	apiErr := errors.New("not found")
	api := &fakeAPI{
		periodicFn: func(string) (*parley.PeriodicRoomInfoResponse, error) { return nil, apiErr },
	}
	store, _, _ := newStore(api)

	require.ErrorIs(t, store.SyncPeriodicRoomInfo(context.Background(), "series-2"), apiErr)
	_, ok := store.PeriodicRoom("series-2")
	assert.False(t, ok)
}

func TestSyncPeriodicSubRoomInfo_MergesNeighborTimestamps(t *testing.T) {
	api := &fakeAPI{
		subRoomFn: func(params parley.PeriodicSubRoomInfoParams) (*parley.PeriodicSubRoomInfoResponse, error) {
			return &parley.PeriodicSubRoomInfoResponse{
				RoomInfo: parley.RoomInfo{
					RoomUUID:     params.RoomUUID,
					OwnerUUID:    "owner-1",
					PeriodicUUID: params.PeriodicUUID,
					Title:        "occurrence",
				},
				PreviousPeriodicRoomBeginTime: 111,
				NextPeriodicRoomEndTime:       222,
			}, nil
		},
	}
	store, _, _ := newStore(api)

	err := store.SyncPeriodicSubRoomInfo(context.Background(), parley.PeriodicSubRoomInfoParams{
		RoomUUID:              "sub-1",
		PeriodicUUID:          "series-1",
		NeedOtherRoomTimeInfo: true,
	})
	require.NoError(t, err)

	rec, ok := store.Room("sub-1")
	require.True(t, ok)
	assert.Equal(t, int64(111), rec.PreviousPeriodicRoomBeginTime)
	assert.Equal(t, int64(222), rec.NextPeriodicRoomEndTime)
}

func TestSyncRecordInfo_ForwardsTokensAndMergesSegments(t *testing.T) {
	api := &fakeAPI{
		recordInfoFn: func(roomUUID string) (*parley.RecordInfoResponse, error) {
			return &parley.RecordInfoResponse{
				Title:     "recorded",
				OwnerUUID: "owner-1",
				RoomType:  parley.RoomTypeBigClass,
				RecordInfo: []parley.RecordSegment{
					{BeginTime: 1, EndTime: 2, FileURL: "https://cdn/r1.m3u8"},
					{BeginTime: 3, EndTime: 4},
				},
				MediaToken: "replay-tok",
			}, nil
		},
	}
	store, sess, _ := newStore(api)

	require.NoError(t, store.SyncRecordInfo(context.Background(), "room-1"))

	require.Len(t, sess.updates, 1)
	assert.Equal(t, "replay-tok", sess.updates[0].MediaToken)

	rec, ok := store.Room("room-1")
	require.True(t, ok)
	assert.True(t, rec.HasRecord)
	require.Len(t, rec.Recordings, 2)
	assert.Equal(t, "https://cdn/r1.m3u8", rec.Recordings[0].FileURL)
	assert.Empty(t, rec.Recordings[1].FileURL)
}

func TestSubscribe_EmitsAfterMutationAndUnsubscribes(t *testing.T) {
	store, _, _ := newStore(&fakeAPI{})

	var events []roomstore.Event
	unsubscribe := store.Subscribe(func(ev roomstore.Event) {
		// The mutation must be visible by the time the event fires.
		_, ok := store.Room(ev.RoomUUID)
		require.True(t, ok)
		events = append(events, ev)
	})

	store.UpdateRoom("room-1", "o", roomstore.RoomPartial{Title: sptr("x")})
	require.Len(t, events, 1)
	assert.Equal(t, roomstore.EventRoomUpdated, events[0].Type)
	assert.Equal(t, "room-1", events[0].RoomUUID)
	assert.Contains(t, events[0].Fields, "title")

	unsubscribe()
	store.UpdateRoom("room-1", "", roomstore.RoomPartial{Title: sptr("y")})
	assert.Len(t, events, 1)
}

func TestApplyNotification_StatusAndRemoval(t *testing.T) {
	store, _, _ := newStore(&fakeAPI{})
	store.UpdateRoom("room-1", "o", roomstore.RoomPartial{Title: sptr("live")})

	store.ApplyNotification(parley.RoomNotification{
		Type:     parley.NotificationRoomStopped,
		RoomUUID: "room-1",
		Data:     map[string]any{"endTime": float64(999)},
	})

	rec, ok := store.Room("room-1")
	require.True(t, ok)
	assert.Equal(t, parley.RoomStatusStopped, rec.RoomStatus)
	assert.Equal(t, int64(999), rec.EndTime)

	store.ApplyNotification(parley.RoomNotification{
		Type:     parley.NotificationRoomCancelled,
		RoomUUID: "room-1",
	})
	_, ok = store.Room("room-1")
	assert.False(t, ok)
}
