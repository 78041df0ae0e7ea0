package kinds

import (
	"github.com/google/uuid"
)

// Id identifies an entity (process, project, event, region, NPC).
// Content files may reference entities by name; a name that does not parse
// as a UUID resolves to the same deterministic id IdFor produces.
type Id uuid.UUID

// NilId is the zero id.
var NilId Id

// NewId returns a random id.
func NewId() Id {
	return Id(uuid.New())
}

// IdFor derives a stable id from an entity name.
func IdFor(name string) Id {
	return Id(uuid.NewSHA1(uuid.NameSpaceOID, []byte("halfearth:"+name)))
}

// ParseId parses a UUID string, falling back to IdFor for plain names.
func ParseId(s string) Id {
	if s == "" {
		return NilId
	}
	if u, err := uuid.Parse(s); err == nil {
		return Id(u)
	}
	return IdFor(s)
}

func (id Id) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is unset.
func (id Id) IsZero() bool {
	return id == NilId
}

func (id Id) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *Id) UnmarshalText(text []byte) error {
	*id = ParseId(string(text))
	return nil
}
