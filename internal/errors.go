package internal

import "errors"

var (
	ErrInvalidURL          = errors.New("invalid url, include http:// or https:// prefix")
	ErrInvalidAlias        = errors.New("invalid custom alias, use 3-64 characters: letters, numbers, - or _")
	ErrAliasConflict       = errors.New("custom alias already in use")
	ErrGenerationExhausted = errors.New("could not generate unique short id")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid short id or url")
	ErrAdminNotConfigured  = errors.New("admin token not configured")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrStore               = errors.New("database error")
)
