package roomstore

import (
	parley "github.com/parleyhq/parley-go"
)

// RecordingSegment is one recorded span of a room session. FileURL is empty
// until the server has finished transcoding the segment.
type RecordingSegment struct {
	BeginTime int64
	EndTime   int64
	FileURL   string
}

// RoomRecord is the cached view of one ordinary room. Fields populate
// incrementally: different sync operations return different subsets, and a
// merge never clears a field the incoming partial does not carry.
// Timestamps are epoch milliseconds; zero means not yet resolved.
type RoomRecord struct {
	RoomUUID       string
	OwnerUUID      string
	OwnerName      string
	OwnerAvatarURL string
	InviteCode     string
	RoomType       parley.RoomType
	// PeriodicUUID is non-empty iff the room belongs to a periodic series.
	PeriodicUUID string
	Title        string
	RoomStatus   parley.RoomStatus
	Region       string
	BeginTime    int64
	EndTime      int64
	// Neighbor timestamps, only meaningful for periodic sub-rooms.
	PreviousPeriodicRoomBeginTime int64
	NextPeriodicRoomEndTime       int64
	HasRecord                     bool
	Recordings                    []RecordingSegment
}

func (r *RoomRecord) clone() *RoomRecord {
	out := *r
	if r.Recordings != nil {
		out.Recordings = make([]RecordingSegment, len(r.Recordings))
		copy(out.Recordings, r.Recordings)
	}
	return &out
}

// PeriodicRoomRecord is the cached view of one periodic room series. Member
// rooms live in the ordinary room mapping; Rooms holds their UUIDs in
// occurrence order.
type PeriodicRoomRecord struct {
	PeriodicUUID string
	Periodic     parley.PeriodicInfo
	Rooms        []string
	InviteCode   string
}

func (p *PeriodicRoomRecord) clone() *PeriodicRoomRecord {
	out := *p
	if p.Rooms != nil {
		out.Rooms = make([]string, len(p.Rooms))
		copy(out.Rooms, p.Rooms)
	}
	return &out
}

// RoomPartial is a partial room update. Nil fields are absent and leave the
// cached value untouched; non-nil fields overwrite it. The room UUID is
// never part of a partial, so a merge can never rewrite a record's key.
type RoomPartial struct {
	OwnerName                     *string
	OwnerAvatarURL                *string
	InviteCode                    *string
	RoomType                      *parley.RoomType
	PeriodicUUID                  *string
	Title                         *string
	RoomStatus                    *parley.RoomStatus
	Region                        *string
	BeginTime                     *int64
	EndTime                       *int64
	PreviousPeriodicRoomBeginTime *int64
	NextPeriodicRoomEndTime       *int64
	HasRecord                     *bool
	Recordings                    []RecordingSegment
}

// apply overwrites the present fields of p onto rec and reports which field
// names were touched. Applying the same partial twice is idempotent.
func (p RoomPartial) apply(rec *RoomRecord) []string {
	var touched []string

	if p.OwnerName != nil {
		rec.OwnerName = *p.OwnerName
		touched = append(touched, "ownerName")
	}
	if p.OwnerAvatarURL != nil {
		rec.OwnerAvatarURL = *p.OwnerAvatarURL
		touched = append(touched, "ownerAvatarURL")
	}
	if p.InviteCode != nil {
		rec.InviteCode = *p.InviteCode
		touched = append(touched, "inviteCode")
	}
	if p.RoomType != nil {
		rec.RoomType = *p.RoomType
		touched = append(touched, "roomType")
	}
	if p.PeriodicUUID != nil {
		rec.PeriodicUUID = *p.PeriodicUUID
		touched = append(touched, "periodicUUID")
	}
	if p.Title != nil {
		rec.Title = *p.Title
		touched = append(touched, "title")
	}
	if p.RoomStatus != nil {
		rec.RoomStatus = *p.RoomStatus
		touched = append(touched, "roomStatus")
	}
	if p.Region != nil {
		rec.Region = *p.Region
		touched = append(touched, "region")
	}
	if p.BeginTime != nil {
		rec.BeginTime = *p.BeginTime
		touched = append(touched, "beginTime")
	}
	if p.EndTime != nil {
		rec.EndTime = *p.EndTime
		touched = append(touched, "endTime")
	}
	if p.PreviousPeriodicRoomBeginTime != nil {
		rec.PreviousPeriodicRoomBeginTime = *p.PreviousPeriodicRoomBeginTime
		touched = append(touched, "previousPeriodicRoomBeginTime")
	}
	if p.NextPeriodicRoomEndTime != nil {
		rec.NextPeriodicRoomEndTime = *p.NextPeriodicRoomEndTime
		touched = append(touched, "nextPeriodicRoomEndTime")
	}
	if p.HasRecord != nil {
		rec.HasRecord = *p.HasRecord
		touched = append(touched, "hasRecord")
	}
	if p.Recordings != nil {
		rec.Recordings = make([]RecordingSegment, len(p.Recordings))
		copy(rec.Recordings, p.Recordings)
		touched = append(touched, "recordings")
	}

	return touched
}

func partialFromListItem(item parley.ListRoomItem) RoomPartial {
	// An absent or empty periodicUUID both mean "no series"; writing the
	// empty string keeps a room from staying attached to a stale series.
	return RoomPartial{
		OwnerName:      ptr(item.OwnerName),
		OwnerAvatarURL: ptr(item.OwnerAvatarURL),
		InviteCode:     ptr(item.InviteCode),
		PeriodicUUID:   ptr(item.PeriodicUUID),
		Title:          ptr(item.Title),
		RoomStatus:     ptr(item.RoomStatus),
		Region:         ptr(item.Region),
		BeginTime:      ptr(item.BeginTime),
		EndTime:        ptr(item.EndTime),
		HasRecord:      ptr(item.HasRecord),
	}
}

func partialFromRoomInfo(info parley.RoomInfo) RoomPartial {
	return RoomPartial{
		OwnerName:      ptr(info.OwnerName),
		OwnerAvatarURL: ptr(info.OwnerAvatarURL),
		InviteCode:     ptr(info.InviteCode),
		RoomType:       ptr(info.RoomType),
		PeriodicUUID:   ptr(info.PeriodicUUID),
		Title:          ptr(info.Title),
		RoomStatus:     ptr(info.RoomStatus),
		Region:         ptr(info.Region),
		BeginTime:      ptr(info.BeginTime),
		EndTime:        ptr(info.EndTime),
		HasRecord:      ptr(info.HasRecord),
	}
}

// partialFromWire builds a partial from the loosely typed field map carried
// by push notifications. Unknown keys are ignored; JSON numbers arrive as
// float64.
func partialFromWire(data map[string]any) RoomPartial {
	var p RoomPartial
	for key, raw := range data {
		switch key {
		case "ownerName":
			if v, ok := raw.(string); ok {
				p.OwnerName = ptr(v)
			}
		case "ownerAvatarURL":
			if v, ok := raw.(string); ok {
				p.OwnerAvatarURL = ptr(v)
			}
		case "inviteCode":
			if v, ok := raw.(string); ok {
				p.InviteCode = ptr(v)
			}
		case "roomType":
			if v, ok := raw.(string); ok {
				p.RoomType = ptr(parley.RoomType(v))
			}
		case "periodicUUID":
			if v, ok := raw.(string); ok {
				p.PeriodicUUID = ptr(v)
			}
		case "title":
			if v, ok := raw.(string); ok {
				p.Title = ptr(v)
			}
		case "roomStatus":
			if v, ok := raw.(string); ok {
				p.RoomStatus = ptr(parley.RoomStatus(v))
			}
		case "region":
			if v, ok := raw.(string); ok {
				p.Region = ptr(v)
			}
		case "beginTime":
			if v, ok := raw.(float64); ok {
				p.BeginTime = ptr(int64(v))
			}
		case "endTime":
			if v, ok := raw.(float64); ok {
				p.EndTime = ptr(int64(v))
			}
		case "hasRecord":
			if v, ok := raw.(bool); ok {
				p.HasRecord = ptr(v)
			}
		}
	}
	return p
}

func ptr[T any](v T) *T {
	return &v
}
