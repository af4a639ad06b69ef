package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Game display names
const (
	GameArknights = "明日方舟"
	GameEndfield  = "终末地"
)

// Supported app codes
const (
	AppArknights = "arknights"
	AppEndfield  = "endfield"
)

type Credential struct {
	Token string `json:"token"`
	Cred  string `json:"cred"`
}

type Role struct {
	RoleID   string `json:"roleId"`
	ServerID string `json:"serverId"`
	Nickname string `json:"nickname"`
}

type UserBinding struct {
	AppCode     string `json:"appCode"`
	GameName    string `json:"gameName"`
	Nickname    string `json:"nickName"`
	ChannelName string `json:"channelName"`
	UID         string `json:"uid"`
	GameID      int    `json:"gameId"`
	Roles       []Role `json:"roles"`
}

type SignInResult struct {
	Success  bool     `json:"success"`
	Game     string   `json:"game"`
	Nickname string   `json:"nickname"`
	Channel  string   `json:"channel"`
	Awards   []string `json:"awards"`
	Error    string   `json:"error,omitempty"`
}

var alreadySignedKeywords = []string{
	"已签到", "请勿重复", "重复签到", "重复", "签到过", "今日已", "already",
}

// AlreadySigned reports whether a failed result only failed because the
// attendance was already recorded today.
func (r SignInResult) AlreadySigned() bool {
	if r.Success || r.Error == "" {
		return false
	}
	msg := strings.ToLower(r.Error)
	for _, keyword := range alreadySignedKeywords {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

func (r SignInResult) SignedToday() bool {
	return r.Success || r.AlreadySigned()
}

// FlexString decodes JSON strings, numbers and booleans into their string form.
// Upstream ids are not consistently typed.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case nil:
		*f = ""
	case json.Number:
		*f = FlexString(val.String())
	default:
		s, err := cast.ToStringE(val)
		if err != nil {
			return fmt.Errorf("unsupported id value %s: %w", string(b), err)
		}
		*f = FlexString(s)
	}
	return nil
}

func (f *FlexString) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}

// Upstream responses

type DeviceProfileResponse struct {
	Code    *int    `json:"code"`
	Message *string `json:"message"`
	Detail  *struct {
		DeviceID string `json:"deviceId"`
	} `json:"detail"`
}

type GrantResponse struct {
	Status  *int    `json:"status"`
	Message *string `json:"message"`
	Data    *struct {
		Code string `json:"code"`
	} `json:"data"`
}

type CredentialResponse struct {
	Code    *int    `json:"code"`
	Message *string `json:"message"`
	Data    *struct {
		Token string `json:"token"`
		Cred  string `json:"cred"`
	} `json:"data"`
}

type BindingResponse struct {
	Code    *int    `json:"code"`
	Message *string `json:"message"`
	Data    *struct {
		List []BindingApp `json:"list"`
	} `json:"data"`
}

type BindingApp struct {
	AppCode     string         `json:"appCode"`
	BindingList []BindingEntry `json:"bindingList"`
}

type BindingEntry struct {
	GameName    *string     `json:"gameName"`
	NickName    *string     `json:"nickName"`
	ChannelName *string     `json:"channelName"`
	UID         *FlexString `json:"uid"`
	GameID      *int        `json:"gameId"`
	Roles       []RoleEntry `json:"roles"`
}

type RoleEntry struct {
	RoleID   FlexString `json:"roleId"`
	ServerID FlexString `json:"serverId"`
	Nickname *string    `json:"nickname"`
}

type AttendanceResponse struct {
	Code    *int    `json:"code"`
	Message *string `json:"message"`
	Data    *struct {
		Awards []struct {
			Resource *struct {
				Name *string `json:"name"`
			} `json:"resource"`
			Count *FlexString `json:"count"`
		} `json:"awards"`
	} `json:"data"`
}

type EndfieldAttendanceResponse struct {
	Code    *int    `json:"code"`
	Message *string `json:"message"`
	Data    *struct {
		AwardIDs []struct {
			ID FlexString `json:"id"`
		} `json:"awardIds"`
		ResourceInfoMap map[string]struct {
			Name  *string     `json:"name"`
			Count *FlexString `json:"count"`
		} `json:"resourceInfoMap"`
	} `json:"data"`
}

// ToUserBinding applies the upstream defaults for absent fields.
func (e BindingEntry) ToUserBinding(appCode string) UserBinding {
	binding := UserBinding{
		AppCode:     appCode,
		GameName:    StringOr(e.GameName, "Unknown"),
		Nickname:    StringOr(e.NickName, "Unknown"),
		ChannelName: StringOr(e.ChannelName, "Unknown"),
		UID:         e.UID.String(),
		GameID:      1,
		Roles:       make([]Role, 0, len(e.Roles)),
	}
	if e.GameID != nil {
		binding.GameID = *e.GameID
	}

	for _, r := range e.Roles {
		binding.Roles = append(binding.Roles, Role{
			RoleID:   string(r.RoleID),
			ServerID: string(r.ServerID),
			Nickname: StringOr(r.Nickname, binding.Nickname),
		})
	}
	return binding
}

func StringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// FormatAward renders one reward as "<name>x<count>".
func FormatAward(name *string, count *FlexString) string {
	c := "1"
	if count != nil {
		c = string(*count)
	}
	return fmt.Sprintf("%sx%s", StringOr(name, "Unknown"), c)
}
