// Copyright 2021 - 2022 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package moerr

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	// 0 - 99 is OK.  They do not contain info, and are special handled
	// using a static instance, no alloc.
	Ok uint16 = 0

	OkMax uint16 = 99

	// 200 - 300 is WARNING
	ErrWarn uint16 = 200
	// The scan finished and no row satisfied the predicate.
	WarnNoMatchFound uint16 = 201
	// A Missing criterion on the row identifier can never be true.
	WarnRowIDNeverMissing uint16 = 202
	WarnMax               uint16 = 299

	// Group 1: Internal errors
	ErrStart            uint16 = 20100
	ErrInternal         uint16 = 20101
	ErrNYI              uint16 = 20102
	ErrQueryInterrupted uint16 = 20104
	ErrNotSupported     uint16 = 20105

	// Group 3: invalid input
	ErrBadConfig             uint16 = 20300
	ErrInvalidInput          uint16 = 20301
	ErrUnsupportedColumnType uint16 = 20320
	ErrPatternNotParseable   uint16 = 20321
	ErrPatternOutOfRange     uint16 = 20322

	// Group 4: unexpected state and io errors
	ErrFileNotFound  uint16 = 20405
	ErrUnexpectedEOF uint16 = 20407
	ErrInvalidRange  uint16 = 20436

	// Group End: max value of MOErrorCode
	ErrEnd uint16 = 65535
)

type moErrorMsgItem struct {
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]moErrorMsgItem{
	// OK code not in this table.  They should not have a msg.
	Ok: {"ok"},

	ErrWarn:               {"warning: %s"},
	WarnNoMatchFound:      {"no row matches the split criteria, all %d rows are in the top output"},
	WarnRowIDNeverMissing: {"row identifiers are never missing, the split criteria will never match"},

	// Group 1: Internal errors
	ErrInternal:         {"internal error: %s"},
	ErrNYI:              {"%s is not yet implemented"},
	ErrQueryInterrupted: {"query interrupted"},
	ErrNotSupported:     {"not supported: %s"},

	// Group 3: invalid input
	ErrBadConfig:             {"invalid configuration: %s"},
	ErrInvalidInput:          {"invalid input: %s"},
	ErrUnsupportedColumnType: {"column '%s' has unsupported type %s, expected a string, integer or long column"},
	ErrPatternNotParseable:   {"pattern '%s' can not be parsed as %s for column '%s'"},
	ErrPatternOutOfRange:     {"pattern '%s' is out of range of %s for column '%s'"},

	// Group 4: unexpected state or file io error
	ErrFileNotFound:  {"file %s is not found"},
	ErrUnexpectedEOF: {"unexpected end of file %s"},
	ErrInvalidRange:  {"invalid row range [%d, %d) of %d rows"},

	// Group End: max value of MOErrorCode
	ErrEnd: {"internal error: end of errcode code"},
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError(ctx, "not exist MOErrorCode: %d", code))
	}
	msg := item.errorMsgOrFormat
	if len(args) > 0 {
		msg = fmt.Sprintf(item.errorMsgOrFormat, args...)
	}
	return &Error{
		code:    code,
		message: msg,
	}
}

type Error struct {
	code    uint16
	message string
	detail  string
}

func (e *Error) Error() string {
	return e.message
}

// WithDetail attaches extra context shown by Display, the message is unchanged.
func (e *Error) WithDetail(detail string) *Error {
	e.detail = detail
	return e
}

func (e *Error) Display() string {
	if len(e.detail) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.detail)
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

// IsWarning reports whether the code lives in the warning group. Warnings
// travel next to a successful result and never abort execution.
func (e *Error) IsWarning() bool {
	return e.code >= ErrWarn && e.code <= WarnMax
}

func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}

	var me *Error
	if !errors.As(e, &me) {
		// This is not a moerr
		return false
	}
	return me.code == rc
}

// ConvertPanicError converts a runtime panic to internal error.
func ConvertPanicError(ctx context.Context, v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return newError(ctx, ErrInternal, fmt.Sprintf("panic %v", v))
}

// ConvertGoError converts a go error into mo error.
// Note here we must return error, because nil error
// is the same as nil *Error -- Go strangeness.
func ConvertGoError(ctx context.Context, err error) error {
	// nil is nil
	if err == nil {
		return err
	}

	// already a moerr, return it as is
	if _, ok := err.(*Error); ok {
		return err
	}

	// cancellation of the execution context is an interruption, not a failure
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewQueryInterrupted(ctx)
	}

	// Convert a few well known os/go error.
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// if io.EOF reaches here, we believe it is not expected.
		return NewUnexpectedEOF(ctx, err.Error())
	}

	return NewInternalError(ctx, "convert go error to mo error %v", err)
}

func NewNoMatchFound(ctx context.Context, rows int64) *Error {
	return newError(ctx, WarnNoMatchFound, rows)
}

func NewRowIDNeverMissing(ctx context.Context) *Error {
	return newError(ctx, WarnRowIDNeverMissing)
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewNYI(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNYI, xmsg)
}

func NewNotSupported(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNotSupported, xmsg)
}

func NewQueryInterrupted(ctx context.Context) *Error {
	return newError(ctx, ErrQueryInterrupted)
}

func NewBadConfig(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadConfig, xmsg)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidInput, xmsg)
}

func NewUnsupportedColumnType(ctx context.Context, col string, typ string) *Error {
	return newError(ctx, ErrUnsupportedColumnType, col, typ)
}

func NewPatternNotParseable(ctx context.Context, pattern string, typ string, col string) *Error {
	return newError(ctx, ErrPatternNotParseable, pattern, typ, col)
}

func NewPatternOutOfRange(ctx context.Context, pattern string, typ string, col string) *Error {
	return newError(ctx, ErrPatternOutOfRange, pattern, typ, col)
}

func NewFileNotFound(ctx context.Context, f string) *Error {
	return newError(ctx, ErrFileNotFound, f)
}

func NewUnexpectedEOF(ctx context.Context, f string) *Error {
	return newError(ctx, ErrUnexpectedEOF, f)
}

func NewInvalidRange(ctx context.Context, from, to, rows int64) *Error {
	return newError(ctx, ErrInvalidRange, from, to, rows)
}
