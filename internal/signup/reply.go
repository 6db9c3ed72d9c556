package signup

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedReply is returned when a reply body does not match the
// service's wire format.
var ErrMalformedReply = errors.New("malformed reply")

// Reply is the decoded JSON body of a signup response.
type Reply struct {
	Error       *string
	SuccessData *SuccessData
}

// SuccessData is present on successful signups.
type SuccessData struct {
	Slug       string
	Email      string
	IsWaitlist bool
}

// ParseReply decodes a reply body. The "error" member must be absent, null or
// a string; "successData", when present and non-null, must be an object.
func ParseReply(body []byte) (Reply, error) {
	if !gjson.ValidBytes(body) {
		return Reply{}, fmt.Errorf("%w: invalid JSON", ErrMalformedReply)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Reply{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedReply)
	}

	var reply Reply
	switch field := root.Get("error"); field.Type {
	case gjson.Null:
		// missing or explicit null
	case gjson.String:
		msg := field.String()
		reply.Error = &msg
	default:
		return Reply{}, fmt.Errorf("%w: error field has type %s", ErrMalformedReply, field.Type)
	}

	data := root.Get("successData")
	if data.Exists() && data.Type != gjson.Null {
		if !data.IsObject() {
			return Reply{}, fmt.Errorf("%w: successData is not an object", ErrMalformedReply)
		}
		reply.SuccessData = &SuccessData{
			Slug:       data.Get("slug").String(),
			Email:      data.Get("email").String(),
			IsWaitlist: data.Get("isWaitlist").Bool(),
		}
	}

	return reply, nil
}
