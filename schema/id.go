package schema

import (
	"context"

	"github.com/rs/xid"
)

var (
	// NewID is a field hook handler that generates a new globally unique id if
	// none exist, to be used in schema with OnInit.
	NewID = func(ctx context.Context, value interface{}) interface{} {
		if value == nil {
			value = xid.New().String()
		}
		return value
	}

	// IDField is a common schema field configuration that generates a
	// globally unique id for new entities.
	IDField = Field{
		Description: "The entity's id",
		ReadOnly:    true,
		OnInit:      NewID,
		Filterable:  true,
		Sortable:    true,
		Validator: &String{
			// This regexp matches a base32 xid.
			Regexp: "^[0-9a-v]{20}$",
		},
	}
)
