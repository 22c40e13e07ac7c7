package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrValidation            = errors.New("validation failed")
	ErrCampaignNotActive     = errors.New("campaign is not accepting donations")
	ErrUnsupportedCurrency   = errors.New("unsupported currency")
	ErrBelowMinimum          = errors.New("amount below provider minimum")
	ErrUnsupportedConversion = errors.New("unsupported currency conversion")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidTransition     = errors.New("invalid donation status transition")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateSlug         = errors.New("campaign slug already taken")
)
