// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"errors"
	"fmt"
)

var (
	// ErrParse reports a text-service response that does not have the
	// expected shape. It is fatal for outlines and falls back elsewhere.
	ErrParse = errors.New("unparseable response")

	// ErrNoCover reports a title with no usable cover image.
	ErrNoCover = errors.New("no cover image")
)

// Stage is one state of the per-title generation state machine.
type Stage string

const (
	StageInit          Stage = "INIT"
	StageOutline       Stage = "OUTLINE"
	StageOutlineFailed Stage = "OUTLINE_FAILED"
	StageExpanding     Stage = "EXPANDING"
	StageAssembled     Stage = "ASSEMBLED"
	StageValidating    Stage = "VALIDATING"
	StageValid         Stage = "VALID"
	StageInvalid       Stage = "INVALID"
	StageCleanRetry    Stage = "CLEAN_RETRY"
	StageAbort         Stage = "ABORT"

	// StageSave marks a document that was generated but could not be stored.
	StageSave Stage = "SAVE"
)

// TitleError reports why one title was abandoned and at which stage.
type TitleError struct {
	Title string
	Stage Stage
	Err   error
}

func (e *TitleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q: %s: %v", e.Title, e.Stage, e.Err)
}

func (e *TitleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
