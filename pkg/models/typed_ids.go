package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// NoteID is a typed ID for notes
type NoteID struct {
	uuid uuid.UUID
}

func NewNoteID() NoteID {
	return NoteID{uuid: uuid.New()}
}

func NewNoteIDFromUUID(id uuid.UUID) NoteID {
	return NoteID{uuid: id}
}

func ParseNoteID(s string) (NoteID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NoteID{}, fmt.Errorf("invalid note ID: %w", err)
	}
	return NoteID{uuid: id}, nil
}

func (n NoteID) UUID() uuid.UUID { return n.uuid }
func (n NoteID) String() string  { return n.uuid.String() }
func (n NoteID) IsZero() bool    { return n.uuid == uuid.Nil }

func (n NoteID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.uuid.String())
}

func (n *NoteID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	n.uuid = id
	return nil
}

func (n NoteID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(n.uuid.String())
}

func (n *NoteID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORUUID(data, &n.uuid)
}

func (n NoteID) Value() (driver.Value, error) {
	if n.IsZero() {
		return nil, nil
	}
	return n.uuid.String(), nil
}

func (n *NoteID) Scan(value any) error {
	return scanUUID(value, &n.uuid)
}

func (NoteID) GormDataType() string { return "uuid" }

// CategoryID is a typed ID for categories
type CategoryID struct {
	uuid uuid.UUID
}

func NewCategoryID() CategoryID {
	return CategoryID{uuid: uuid.New()}
}

func NewCategoryIDFromUUID(id uuid.UUID) CategoryID {
	return CategoryID{uuid: id}
}

func ParseCategoryID(s string) (CategoryID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CategoryID{}, fmt.Errorf("invalid category ID: %w", err)
	}
	return CategoryID{uuid: id}, nil
}

func (c CategoryID) UUID() uuid.UUID { return c.uuid }
func (c CategoryID) String() string  { return c.uuid.String() }
func (c CategoryID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CategoryID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CategoryID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CategoryID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(c.uuid.String())
}

func (c *CategoryID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORUUID(data, &c.uuid)
}

func (c CategoryID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CategoryID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CategoryID) GormDataType() string { return "uuid" }

// TemplateID is a typed ID for note templates
type TemplateID struct {
	uuid uuid.UUID
}

func NewTemplateID() TemplateID {
	return TemplateID{uuid: uuid.New()}
}

func ParseTemplateID(s string) (TemplateID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TemplateID{}, fmt.Errorf("invalid template ID: %w", err)
	}
	return TemplateID{uuid: id}, nil
}

func (t TemplateID) UUID() uuid.UUID { return t.uuid }
func (t TemplateID) String() string  { return t.uuid.String() }
func (t TemplateID) IsZero() bool    { return t.uuid == uuid.Nil }

func (t TemplateID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.uuid.String())
}

func (t *TemplateID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	t.uuid = id
	return nil
}

func (t TemplateID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(t.uuid.String())
}

func (t *TemplateID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORUUID(data, &t.uuid)
}

func (t TemplateID) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.uuid.String(), nil
}

func (t *TemplateID) Scan(value any) error {
	return scanUUID(value, &t.uuid)
}

func (TemplateID) GormDataType() string { return "uuid" }

// scanUUID is a helper for implementing sql.Scanner across the postgres and
// sqlite backends, which hand back uuids as string or []byte.
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORUUID decodes a uuid encoded as its string form, which is how
// draft snapshots store IDs.
func unmarshalCBORUUID(data []byte, target *uuid.UUID) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = id
	return nil
}
