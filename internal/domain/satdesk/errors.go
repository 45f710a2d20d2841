package satdesk

import "errors"

var (
	ErrSatDeskNotFound      = errors.New("satdesk not found")
	ErrSatDeskAlreadyExists = errors.New("satdesk already exists")
)
