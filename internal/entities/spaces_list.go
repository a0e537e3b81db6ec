package entities

import (
	"cloud.google.com/go/civil"

	"deskhub/internal/db"
)

type SpaceFilter struct {
	WorkspaceType db.WorkspaceType
	City          string
	MinCapacity   int
	MaxPrice      int64
	// FreeFrom and FreeTo keep only spaces with no active booking in the range.
	FreeFrom *civil.Date
	FreeTo   *civil.Date
	Limit    int
	Offset   int
}

type SpacesList struct {
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Spaces []db.Space `json:"spaces"`
}
