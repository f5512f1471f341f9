package parley

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/parleyhq/parley-go/internal/requestconfig"
	"github.com/parleyhq/parley-go/option"
)

// RoomType is the meeting format of a room.
type RoomType string

const (
	RoomTypeOneToOne   RoomType = "OneToOne"
	RoomTypeSmallClass RoomType = "SmallClass"
	RoomTypeBigClass   RoomType = "BigClass"
)

// RoomStatus is the lifecycle state of a room. Stopped is terminal.
type RoomStatus string

const (
	RoomStatusIdle    RoomStatus = "Idle"
	RoomStatusStarted RoomStatus = "Started"
	RoomStatusPaused  RoomStatus = "Paused"
	RoomStatusStopped RoomStatus = "Stopped"
)

// ListCategory selects which server-side room listing to page through.
type ListCategory string

const (
	ListCategoryAll      ListCategory = "all"
	ListCategoryHistory  ListCategory = "history"
	ListCategoryPeriodic ListCategory = "periodic"
	ListCategoryToday    ListCategory = "today"
)

type RoomService struct {
	Options []option.RequestOption
}

func NewRoomService(opts ...option.RequestOption) *RoomService {
	r := &RoomService{opts}
	return r
}

// Create schedules a single ordinary room and returns its identifiers.
func (r *RoomService) Create(ctx context.Context, body CreateRoomParams, opts ...option.RequestOption) (*CreateRoomResponse, error) {
	opts = slices.Concat(r.Options, opts)
	if body.Title == "" {
		return nil, ErrMissingTitleParameter
	}

	path := "rooms"
	res := &CreateRoomResponse{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &res, opts...)

	return res, err
}

// CreatePeriodic schedules a recurring room series. The server does not
// return the series or member identifiers; fetch them with List or
// PeriodicInfo afterwards.
func (r *RoomService) CreatePeriodic(ctx context.Context, body CreatePeriodicRoomParams, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if body.Title == "" {
		return ErrMissingTitleParameter
	}
	if body.Periodic.Rate <= 0 && body.Periodic.EndTime == 0 {
		return ErrMissingPeriodicParameter
	}

	path := "rooms/periodic"
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, nil, opts...)

	return err
}

// Join enters a room. The identifier may be an ordinary room UUID, a
// periodic series UUID or an invite code; resolution happens server side.
func (r *RoomService) Join(ctx context.Context, identifier string, opts ...option.RequestOption) (*JoinRoomResponse, error) {
	opts = slices.Concat(r.Options, opts)
	if identifier == "" {
		return nil, ErrMissingUUIDParameter
	}

	path := "rooms/join"
	res := &JoinRoomResponse{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, joinRoomParams{UUID: identifier}, &res, opts...)

	return res, err
}

// List fetches one page of the given room listing. Pages are 1-based.
func (r *RoomService) List(ctx context.Context, category ListCategory, page int, opts ...option.RequestOption) ([]ListRoomItem, error) {
	opts = slices.Concat(r.Options, opts)
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	fullURL := fmt.Sprintf("rooms/list/%s?%s", category, query.Encode())

	var res []ListRoomItem
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, fullURL, nil, &res, opts...)

	return res, err
}

// Cancel removes an upcoming room, or a whole series when All is set.
func (r *RoomService) Cancel(ctx context.Context, body CancelRoomParams, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if body.RoomUUID == "" && body.PeriodicUUID == "" {
		return ErrMissingUUIDParameter
	}

	path := "rooms/cancel"
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, nil, opts...)

	return err
}

// Info fetches the full snapshot of one ordinary room.
func (r *RoomService) Info(ctx context.Context, uuid string, opts ...option.RequestOption) (*RoomInfoResponse, error) {
	opts = slices.Concat(r.Options, opts)
	if uuid == "" {
		return nil, ErrMissingUUIDParameter
	}

	path := fmt.Sprintf("rooms/%s", uuid)
	res := &RoomInfoResponse{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)

	return res, err
}

// PeriodicInfo fetches the series metadata and the member room snapshots of
// a periodic room series.
func (r *RoomService) PeriodicInfo(ctx context.Context, periodicUUID string, opts ...option.RequestOption) (*PeriodicRoomInfoResponse, error) {
	opts = slices.Concat(r.Options, opts)
	if periodicUUID == "" {
		return nil, ErrMissingUUIDParameter
	}

	path := fmt.Sprintf("rooms/periodic/%s", periodicUUID)
	res := &PeriodicRoomInfoResponse{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)

	return res, err
}

// PeriodicSubRoomInfo fetches one member room of a series, optionally with
// the begin/end timestamps of its neighboring occurrences.
func (r *RoomService) PeriodicSubRoomInfo(ctx context.Context, body PeriodicSubRoomInfoParams, opts ...option.RequestOption) (*PeriodicSubRoomInfoResponse, error) {
	opts = slices.Concat(r.Options, opts)
	if body.RoomUUID == "" || body.PeriodicUUID == "" {
		return nil, ErrMissingUUIDParameter
	}

	path := "rooms/periodic/sub-room"
	res := &PeriodicSubRoomInfoResponse{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &res, opts...)

	return res, err
}

type CreateRoomParams struct {
	Title     string   `json:"title"`
	Type      RoomType `json:"type"`
	Region    string   `json:"region"`
	BeginTime int64    `json:"beginTime,omitempty"`
	EndTime   int64    `json:"endTime,omitempty"`
}

type CreateRoomResponse struct {
	RoomUUID   string `json:"roomUUID"`
	InviteCode string `json:"inviteCode"`
}

// PeriodicSpec describes the recurrence of a room series. Either Rate (the
// number of occurrences) or EndTime (last occurrence cutoff) bounds it.
type PeriodicSpec struct {
	Weeks   []int `json:"weeks"`
	Rate    int   `json:"rate,omitempty"`
	EndTime int64 `json:"endTime,omitempty"`
}

type CreatePeriodicRoomParams struct {
	Title     string       `json:"title"`
	Type      RoomType     `json:"type"`
	Region    string       `json:"region"`
	BeginTime int64        `json:"beginTime"`
	EndTime   int64        `json:"endTime"`
	Periodic  PeriodicSpec `json:"periodic"`
}

type joinRoomParams struct {
	UUID string `json:"uuid"`
}

type JoinRoomResponse struct {
	RoomUUID        string   `json:"roomUUID"`
	OwnerUUID       string   `json:"ownerUUID"`
	RoomType        RoomType `json:"roomType"`
	SessionToken    string   `json:"sessionToken"`
	MediaToken      string   `json:"mediaToken"`
	WhiteboardToken string   `json:"whiteboardToken"`
	Region          string   `json:"region"`
}

type ListRoomItem struct {
	RoomUUID       string     `json:"roomUUID"`
	PeriodicUUID   string     `json:"periodicUUID"`
	OwnerUUID      string     `json:"ownerUUID"`
	OwnerName      string     `json:"ownerName"`
	OwnerAvatarURL string     `json:"ownerAvatarURL"`
	Title          string     `json:"title"`
	BeginTime      int64      `json:"beginTime"`
	EndTime        int64      `json:"endTime"`
	RoomStatus     RoomStatus `json:"roomStatus"`
	Region         string     `json:"region"`
	HasRecord      bool       `json:"hasRecord"`
	InviteCode     string     `json:"inviteCode"`
}

type CancelRoomParams struct {
	RoomUUID     string `json:"roomUUID,omitempty"`
	PeriodicUUID string `json:"periodicUUID,omitempty"`
	// All cancels every remaining occurrence of the series.
	All bool `json:"all,omitempty"`
}

type RoomInfo struct {
	RoomUUID       string     `json:"roomUUID"`
	PeriodicUUID   string     `json:"periodicUUID"`
	OwnerUUID      string     `json:"ownerUUID"`
	OwnerName      string     `json:"ownerName"`
	OwnerAvatarURL string     `json:"ownerAvatarURL"`
	Title          string     `json:"title"`
	RoomType       RoomType   `json:"roomType"`
	RoomStatus     RoomStatus `json:"roomStatus"`
	Region         string     `json:"region"`
	BeginTime      int64      `json:"beginTime"`
	EndTime        int64      `json:"endTime"`
	HasRecord      bool       `json:"hasRecord"`
	InviteCode     string     `json:"inviteCode"`
}

type RoomInfoResponse struct {
	RoomInfo RoomInfo `json:"roomInfo"`
}

// PeriodicInfo is the series-level metadata of a periodic room. The server
// owns its shape; clients treat it as descriptive only.
type PeriodicInfo struct {
	PeriodicUUID string   `json:"periodicUUID"`
	OwnerUUID    string   `json:"ownerUUID"`
	OwnerName    string   `json:"ownerName"`
	Title        string   `json:"title"`
	RoomType     RoomType `json:"roomType"`
	InviteCode   string   `json:"inviteCode"`
	Weeks        []int    `json:"weeks"`
	Rate         int      `json:"rate"`
	EndTime      int64    `json:"endTime"`
}

type PeriodicSubRoom struct {
	RoomUUID   string     `json:"roomUUID"`
	BeginTime  int64      `json:"beginTime"`
	EndTime    int64      `json:"endTime"`
	RoomStatus RoomStatus `json:"roomStatus"`
}

type PeriodicRoomInfoResponse struct {
	Periodic PeriodicInfo      `json:"periodic"`
	Rooms    []PeriodicSubRoom `json:"rooms"`
}

type PeriodicSubRoomInfoParams struct {
	RoomUUID     string `json:"roomUUID"`
	PeriodicUUID string `json:"periodicUUID"`
	// NeedOtherRoomTimeInfo asks the server to include the begin time of the
	// previous occurrence and the end time of the next one.
	NeedOtherRoomTimeInfo bool `json:"needOtherRoomTimeInfo"`
}

type PeriodicSubRoomInfoResponse struct {
	RoomInfo                      RoomInfo `json:"roomInfo"`
	PreviousPeriodicRoomBeginTime int64    `json:"previousPeriodicRoomBeginTime"`
	NextPeriodicRoomEndTime       int64    `json:"nextPeriodicRoomEndTime"`
	Count                         int      `json:"count"`
}
