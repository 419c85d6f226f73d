package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSendingReplyFailed  = errors.New("failed to send reply")
	ErrDownload            = errors.New("download failed")
	ErrProcessExit         = errors.New("converter exited with failure")
	ErrProcessSignal       = errors.New("converter terminated by signal")
	ErrOutputTooLarge      = errors.New("converter output too large")
	ErrProcessSpawn        = errors.New("converter could not be started")
	ErrCache               = errors.New("output cache failure")
	ErrUpload              = errors.New("upload failed")
	ErrUnexpected          = errors.New("unexpected conversion failure")
	ErrUnsupportedSticker  = errors.New("unsupported sticker type")
	ErrConverterNotPresent = errors.New("converter binary not available")
)

type Stage string

const (
	StageDownload    Stage = "download"
	StageConvert     Stage = "convert"
	StagePostProcess Stage = "postprocess"
	StageUpload      Stage = "upload"
)

// ConversionError describes a failed conversion attempt. Code carries the
// converter exit code when the failure came from the external process.
type ConversionError struct {
	ID    ConversionID
	Stage Stage
	Code  int
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("conversion %s failed at %s (code %d): %v", e.ID.Short(), e.Stage, e.Code, e.Err)
	}
	return fmt.Sprintf("conversion %s failed at %s: %v", e.ID.Short(), e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ProcessError is returned by converter adapters. Kind is one of ErrProcessExit,
// ErrProcessSignal, ErrOutputTooLarge or ErrProcessSpawn.
type ProcessError struct {
	Kind   error
	Code   int
	Signal string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	switch {
	case e.Signal != "":
		fmt.Fprintf(&b, ": %s", e.Signal)
	case e.Code != 0:
		fmt.Fprintf(&b, ": exit code %d", e.Code)
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	}

	return b.String()
}

func (e *ProcessError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
