package roomstore

import (
	"context"

	parley "github.com/parleyhq/parley-go"
	"github.com/parleyhq/parley-go/session"
)

// API is the slice of the Parley API consumed by the store. It is satisfied
// by [ClientAPI] in production and by fakes in tests.
type API interface {
	CreateRoom(ctx context.Context, params parley.CreateRoomParams) (*parley.CreateRoomResponse, error)
	CreatePeriodicRoom(ctx context.Context, params parley.CreatePeriodicRoomParams) error
	JoinRoom(ctx context.Context, identifier string) (*parley.JoinRoomResponse, error)
	ListRooms(ctx context.Context, category Category, page int) ([]parley.ListRoomItem, error)
	CancelRoom(ctx context.Context, params parley.CancelRoomParams) error
	RoomInfo(ctx context.Context, roomUUID string) (*parley.RoomInfoResponse, error)
	PeriodicRoomInfo(ctx context.Context, periodicUUID string) (*parley.PeriodicRoomInfoResponse, error)
	PeriodicSubRoomInfo(ctx context.Context, params parley.PeriodicSubRoomInfoParams) (*parley.PeriodicSubRoomInfoResponse, error)
	RecordInfo(ctx context.Context, roomUUID string) (*parley.RecordInfoResponse, error)
}

// Session is the externally held auth state the store reads and refreshes.
type Session interface {
	UserUUID() string
	UpdateTokens(tokens session.Tokens)
}

// Preferences records user choices the store learns as a side effect, such
// as the last region a room was created in.
type Preferences interface {
	SetRegion(region string)
}

// ClientAPI adapts a [parley.Client] to the [API] interface.
type ClientAPI struct {
	Client *parley.Client
}

var _ API = ClientAPI{}

func (c ClientAPI) CreateRoom(ctx context.Context, params parley.CreateRoomParams) (*parley.CreateRoomResponse, error) {
	return c.Client.Room.Create(ctx, params)
}

func (c ClientAPI) CreatePeriodicRoom(ctx context.Context, params parley.CreatePeriodicRoomParams) error {
	return c.Client.Room.CreatePeriodic(ctx, params)
}

func (c ClientAPI) JoinRoom(ctx context.Context, identifier string) (*parley.JoinRoomResponse, error) {
	return c.Client.Room.Join(ctx, identifier)
}

func (c ClientAPI) ListRooms(ctx context.Context, category Category, page int) ([]parley.ListRoomItem, error) {
	return c.Client.Room.List(ctx, category, page)
}

func (c ClientAPI) CancelRoom(ctx context.Context, params parley.CancelRoomParams) error {
	return c.Client.Room.Cancel(ctx, params)
}

func (c ClientAPI) RoomInfo(ctx context.Context, roomUUID string) (*parley.RoomInfoResponse, error) {
	return c.Client.Room.Info(ctx, roomUUID)
}

func (c ClientAPI) PeriodicRoomInfo(ctx context.Context, periodicUUID string) (*parley.PeriodicRoomInfoResponse, error) {
	return c.Client.Room.PeriodicInfo(ctx, periodicUUID)
}

func (c ClientAPI) PeriodicSubRoomInfo(ctx context.Context, params parley.PeriodicSubRoomInfoParams) (*parley.PeriodicSubRoomInfoResponse, error) {
	return c.Client.Room.PeriodicSubRoomInfo(ctx, params)
}

func (c ClientAPI) RecordInfo(ctx context.Context, roomUUID string) (*parley.RecordInfoResponse, error) {
	return c.Client.Record.Info(ctx, roomUUID)
}
