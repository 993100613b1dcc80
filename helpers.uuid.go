package main

import (
	"github.com/gofrs/uuid"
)

var _ UIDGenerator = (*IDsHandler)(nil)

// UIDGenerator provides prefixed unique identifiers.
type UIDGenerator interface {
	Generate(prefix string) string
}

// IDsHandler builds identifiers of the form `<prefix>:<uuid v4>`.
type IDsHandler struct {
	newUUID func() (uuid.UUID, error)
}

func NewIDsHandler() *IDsHandler {
	return &IDsHandler{newUUID: uuid.NewV4}
}

// Generate falls back to a time-based uuid when the random source fails.
func (idh *IDsHandler) Generate(prefix string) string {
	id, err := idh.newUUID()
	if err != nil {
		id = uuid.Must(uuid.NewV1())
	}
	return prefix + ":" + id.String()
}
