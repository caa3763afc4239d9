package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidInterval      ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidDirection     ErrorCode = 104
	ErrCodeConfigurationGap     ErrorCode = 105

	// Market data errors (200-299)
	ErrCodeSourceUnavailable     ErrorCode = 200
	ErrCodeMarketDataFetchFailed ErrorCode = 201
	ErrCodeMarketDataParseFailed ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeInvalidProvider       ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeInsufficientHistory  ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 301

	// Persistence errors (400-499)
	ErrCodeLedgerFailed  ErrorCode = 400
	ErrCodeJournalFailed ErrorCode = 401
	ErrCodeStoreOpen     ErrorCode = 402
)
