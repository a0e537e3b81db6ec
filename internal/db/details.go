package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// WorkspaceDetails is implemented by one struct per workspace type.
type WorkspaceDetails interface {
	WorkspaceType() WorkspaceType
}

type DeskDetails struct {
	DeskKind string `json:"deskKind" validate:"required,oneof=hot dedicated"`
	Monitors int    `json:"monitors" validate:"gte=0"`
}

type PrivateOfficeDetails struct {
	Rooms     int  `json:"rooms" validate:"gte=1"`
	Furnished bool `json:"furnished"`
}

type MeetingRoomDetails struct {
	Seats         int  `json:"seats" validate:"gte=1"`
	HasProjector  bool `json:"hasProjector"`
	HasWhiteboard bool `json:"hasWhiteboard"`
}

type CoworkingDetails struct {
	Seats           int  `json:"seats" validate:"gte=1"`
	CommunityEvents bool `json:"communityEvents"`
}

func (DeskDetails) WorkspaceType() WorkspaceType          { return WorkspaceDesk }
func (PrivateOfficeDetails) WorkspaceType() WorkspaceType { return WorkspacePrivateOffice }
func (MeetingRoomDetails) WorkspaceType() WorkspaceType   { return WorkspaceMeetingRoom }
func (CoworkingDetails) WorkspaceType() WorkspaceType     { return WorkspaceCoworking }

// Details carries the type-specific attributes of a space. On the wire it is
// a flat object with a "type" discriminator.
type Details struct {
	Variant WorkspaceDetails
}

func newVariant(t WorkspaceType) (WorkspaceDetails, error) {
	switch t {
	case WorkspaceDesk:
		return &DeskDetails{}, nil
	case WorkspacePrivateOffice:
		return &PrivateOfficeDetails{}, nil
	case WorkspaceMeetingRoom:
		return &MeetingRoomDetails{}, nil
	case WorkspaceCoworking:
		return &CoworkingDetails{}, nil
	}
	return nil, fmt.Errorf("unknown details type %q", t)
}

func (d Details) MarshalJSON() ([]byte, error) {
	if d.Variant == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(d.Variant)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typ, err := json.Marshal(d.Variant.WorkspaceType())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}

func (d *Details) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Variant = nil
		return nil
	}
	var head struct {
		Type WorkspaceType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	v, err := newVariant(head.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	d.Variant = v
	return nil
}

// Validate checks the variant's fields and that it describes a space of type t.
func (d Details) Validate(t WorkspaceType) error {
	if d.Variant == nil {
		return nil
	}
	if got := d.Variant.WorkspaceType(); got != t {
		return fmt.Errorf("details of type %q do not match workspace type %q", got, t)
	}
	if err := validate.Struct(d.Variant); err != nil {
		return fmt.Errorf("invalid details: %w", err)
	}
	return nil
}

func (d Details) Value() (driver.Value, error) {
	if d.Variant == nil {
		return nil, nil
	}
	data, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (d *Details) Scan(src interface{}) error {
	data, err := jsonbBytes(src)
	if err != nil || data == nil {
		d.Variant = nil
		return err
	}
	return d.UnmarshalJSON(data)
}

// Validate checks the parts of a space that are stored as structured JSON.
func (s *Space) Validate() error {
	if !s.WorkspaceType.Valid() {
		return fmt.Errorf("unknown workspace type %q", s.WorkspaceType)
	}
	if err := s.Details.Validate(s.WorkspaceType); err != nil {
		return err
	}
	if err := s.Availability.Validate(); err != nil {
		return fmt.Errorf("invalid availability: %w", err)
	}
	return nil
}
