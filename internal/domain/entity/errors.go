package entity

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid generation request")
	ErrToolNotInstalled     = errors.New("ffmpeg is not installed or not on PATH")
	ErrVoiceNotConfigured   = errors.New("voice synthesis is not configured")
	ErrVoiceProvider        = errors.New("voice provider failed")
	ErrNoImages             = errors.New("no images available to compile")
	ErrGenerationInProgress = errors.New("a trailer generation is already running for this book")
	ErrJobNotFound          = errors.New("trailer job not found")
	ErrStaleJob             = errors.New("trailer job was superseded")
)
