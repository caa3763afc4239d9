package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidInterval, "invalid interval")
	suite.Equal(ErrCodeInvalidInterval, err.Code)
	suite.Equal("invalid interval", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[102] invalid interval", err.Error())
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeConfigurationGap, "no thresholds for %s", "4h")
	suite.Equal("no thresholds for 4h", err.Message)
	suite.Equal("[105] no thresholds for 4h", err.Error())
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeSourceUnavailable, "binance unavailable", cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("[200] binance unavailable: connection refused", err.Error())
	suite.Equal(cause, errors.Unwrap(err))
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("timeout")
	err := Wrapf(ErrCodeMarketDataFetchFailed, cause, "fetch %s %s", "BTCUSDT", "1h")
	suite.Equal("fetch BTCUSDT 1h", err.Message)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeLedgerFailed, GetCode(New(ErrCodeLedgerFailed, "x")))

	wrapped := fmt.Errorf("outer: %w", New(ErrCodeJournalFailed, "inner"))
	suite.Equal(ErrCodeJournalFailed, GetCode(wrapped))
	suite.True(HasCode(wrapped, ErrCodeJournalFailed))

	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.False(HasCode(errors.New("plain"), ErrCodeLedgerFailed))
}

func (suite *ErrorTestSuite) TestAs() {
	var target *Error

	err := fmt.Errorf("wrapped: %w", New(ErrCodeStoreOpen, "cannot open"))
	suite.True(As(err, &target))
	suite.Equal(ErrCodeStoreOpen, target.Code)
}

func (suite *ErrorTestSuite) TestJoin() {
	first := New(ErrCodeSourceUnavailable, "okx")
	second := New(ErrCodeSourceUnavailable, "binance")

	joined := Join(first, second)
	suite.True(Is(joined, first))
	suite.True(Is(joined, second))
	suite.Nil(Join())
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError("rsi", 15, 4)
	suite.Equal("insufficient history for rsi: required 15 candles, got 4", err.Error())
	suite.True(IsInsufficientDataError(err))
	suite.True(IsInsufficientDataError(fmt.Errorf("ctx: %w", err)))
	suite.False(IsInsufficientDataError(errors.New("other")))
}
