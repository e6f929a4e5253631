package token

import appErrors "account-service/pkg/errors"

var (
	ErrTokenInvalid      = appErrors.ErrTokenInvalid
	ErrTokenBlacklisted  = appErrors.ErrTokenBlacklisted
	ErrTokenWrongType    = appErrors.ErrTokenWrongType
	ErrInvalidResetToken = appErrors.ErrInvalidResetToken
	ErrExpiredResetToken = appErrors.ErrExpiredResetToken
)
