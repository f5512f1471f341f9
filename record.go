package parley

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/parleyhq/parley-go/internal/requestconfig"
	"github.com/parleyhq/parley-go/option"
)

type RecordService struct {
	Options []option.RequestOption
}

func NewRecordService(opts ...option.RequestOption) *RecordService {
	r := &RecordService{opts}
	return r
}

// Info fetches the recording segments of a room along with fresh replay
// tokens. The room snapshot fields mirror [RoomInfo] so callers can refresh
// their cached record from the same response.
func (r *RecordService) Info(ctx context.Context, uuid string, opts ...option.RequestOption) (*RecordInfoResponse, error) {
	opts = slices.Concat(r.Options, opts)
	if uuid == "" {
		return nil, ErrMissingUUIDParameter
	}

	path := fmt.Sprintf("rooms/%s/record", uuid)
	res := &RecordInfoResponse{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)

	return res, err
}

// RecordSegment is one contiguous recorded span of a room session.
type RecordSegment struct {
	BeginTime int64  `json:"beginTime"`
	EndTime   int64  `json:"endTime"`
	FileURL   string `json:"fileURL,omitempty"`
}

type RecordInfoResponse struct {
	Title           string          `json:"title"`
	OwnerUUID       string          `json:"ownerUUID"`
	RoomType        RoomType        `json:"roomType"`
	RecordInfo      []RecordSegment `json:"recordInfo"`
	SessionToken    string          `json:"sessionToken"`
	MediaToken      string          `json:"mediaToken"`
	WhiteboardToken string          `json:"whiteboardToken"`
}
