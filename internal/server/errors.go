package server

import (
	"errors"
	"fmt"
	"net/http"

	"bluffdice/internal/game"
)

// 對外的錯誤代碼
const (
	CodeNoPlayer         = "NO_PLAYER"
	CodeAlreadyJoined    = "ALREADY_JOINED"
	CodeGameExists       = "GAME_EXISTS"
	CodeNoGame           = "NO_GAME"
	CodeNotJoined        = "NOT_JOINED"
	CodeWrongState       = "WRONG_STATE"
	CodeNotYourTurn      = "NOT_YOUR_TURN"
	CodeInvalidBid       = "INVALID_BID"
	CodeBidTooLow        = "BID_TOO_LOW"
	CodeNoBid            = "NO_BID"
	CodeJoinClosed       = "JOIN_CLOSED"
	CodeNotEnoughPlayers = "NOT_ENOUGH_PLAYERS"
	CodeBadRequest       = "BAD_REQUEST"
	CodeInternal         = "INTERNAL"
)

// Error 帶有錯誤代碼與 HTTP 狀態碼的錯誤
type Error struct {
	Code   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code string, status int, format string, args ...any) *Error {
	return &Error{Code: code, Status: status, Err: fmt.Errorf(format, args...)}
}

var ruleCodes = []struct {
	err  error
	code string
}{
	{game.ErrWrongState, CodeWrongState},
	{game.ErrNotYourTurn, CodeNotYourTurn},
	{game.ErrInvalidBid, CodeInvalidBid},
	{game.ErrBidTooLow, CodeBidTooLow},
	{game.ErrNoBid, CodeNoBid},
	{game.ErrUnknownPlayer, CodeNotJoined},
	{game.ErrDuplicatePlayer, CodeAlreadyJoined},
	{game.ErrJoinClosed, CodeJoinClosed},
	{game.ErrNotEnoughPlayers, CodeNotEnoughPlayers},
}

// ruleError 將牌局規則錯誤包成對外錯誤
func ruleError(err error) error {
	if err == nil {
		return nil
	}
	for _, rc := range ruleCodes {
		if errors.Is(err, rc.err) {
			return &Error{Code: rc.code, Status: http.StatusConflict, Err: err}
		}
	}
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Err: err}
}

// errorCode 取出錯誤代碼與狀態碼
func errorCode(err error) (string, int) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, e.Status
	}
	return CodeInternal, http.StatusInternalServerError
}
