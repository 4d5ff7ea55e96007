// Package errs defines the sentinel errors shared by all tabseries packages.
//
// Typed errors in other packages (row.SchemaMismatchError, convert.ConversionError,
// series.OutOfPeriodError) match one of these sentinels through errors.Is, so callers
// can classify a failure without importing the package that produced it.
package errs

import "errors"

// Row source errors.
var (
	// ErrSchemaMismatch is returned when a row's field count differs from the
	// column count fixed when the source was opened.
	ErrSchemaMismatch = errors.New("row field count does not match column count")
	// ErrCursorClosed is returned when a cursor is used after Close.
	ErrCursorClosed = errors.New("cursor is closed")
	// ErrNoCurrentRow is returned when a value is read before a successful Next.
	ErrNoCurrentRow = errors.New("cursor is not positioned on a row")
	// ErrRowOutOfRange is returned by MoveTo for an index outside [0, rows).
	ErrRowOutOfRange = errors.New("row index out of range")
	// ErrColumnOutOfRange is returned for a column index outside [0, columns).
	ErrColumnOutOfRange = errors.New("column index out of range")
	// ErrInvalidColumnCount is returned when an explicit column count is not positive.
	ErrInvalidColumnCount = errors.New("invalid column count")
	// ErrInvalidDelimiter is returned for a delimiter that cannot separate fields.
	ErrInvalidDelimiter = errors.New("invalid delimiter")
	// ErrLookaheadExceeded is returned when the comment block before the first data
	// line is larger than the configured lookahead limit.
	ErrLookaheadExceeded = errors.New("lookahead limit exceeded before first data line")
	// ErrInvalidPattern is returned for a header pattern without a name or expression.
	ErrInvalidPattern = errors.New("invalid header pattern")
)

// Conversion errors.
var (
	// ErrConversion is matched by every convert.ConversionError.
	ErrConversion = errors.New("cell conversion failed")
	// ErrBuilderUsed is returned when a conversion builder produces a second cursor.
	ErrBuilderUsed = errors.New("conversion builder already used")
)

// Assembly errors.
var (
	// ErrAlreadyAssembled is returned when Assemble is called more than once.
	ErrAlreadyAssembled = errors.New("assembler already assembled")
	// ErrAssemblerSealed is returned when the assembler is configured after Assemble.
	ErrAssemblerSealed = errors.New("assembler configuration is sealed")
	// ErrNoSeriesColumns is returned when Assemble is called with no value columns.
	ErrNoSeriesColumns = errors.New("no time series columns configured")
	// ErrEmptySource is returned when the row source holds no data rows.
	ErrEmptySource = errors.New("row source has no data rows")
	// ErrNotDateTime is returned when the date/time column does not convert to a time.Time.
	ErrNotDateTime = errors.New("date/time column did not convert to a time value")
	// ErrNotNumeric is returned when a value column does not convert to a float64.
	ErrNotNumeric = errors.New("value column did not convert to a numeric value")
)

// Series errors.
var (
	// ErrOutOfPeriod is matched by series.OutOfPeriodError.
	ErrOutOfPeriod = errors.New("data point outside series period")
	// ErrInvalidSeriesID is returned for an empty series identifier.
	ErrInvalidSeriesID = errors.New("invalid series identifier")
	// ErrPeriodNotSet is returned when storage is allocated before start and end are set.
	ErrPeriodNotSet = errors.New("series period not set")
	// ErrInvalidPeriod is returned when the series end precedes its start.
	ErrInvalidPeriod = errors.New("series end precedes start")
	// ErrStorageNotAllocated is returned when a point is set before storage allocation.
	ErrStorageNotAllocated = errors.New("series storage not allocated")
	// ErrMisalignedTime is returned when a regular series receives a time off its interval grid.
	ErrMisalignedTime = errors.New("time is not aligned to series interval")
	// ErrInvalidInterval is returned for a non-positive regular interval.
	ErrInvalidInterval = errors.New("invalid series interval")
	// ErrPeriodTooLarge is returned when a regular series period needs more slots than allowed.
	ErrPeriodTooLarge = errors.New("series period needs too many slots")
	// ErrInvalidMaxSlots is returned for a non-positive slot limit.
	ErrInvalidMaxSlots = errors.New("invalid series slot limit")
)

// Blob errors.
var (
	ErrInvalidHeaderSize      = errors.New("invalid blob header size")
	ErrInvalidMagicNumber     = errors.New("invalid blob magic number")
	ErrInvalidHeaderFlags     = errors.New("invalid blob header flags")
	ErrInvalidIndexEntrySize  = errors.New("invalid blob index entry size")
	ErrInvalidPayloadOffset   = errors.New("invalid blob payload offset")
	ErrChecksumMismatch       = errors.New("blob checksum mismatch")
	ErrDuplicateSeries        = errors.New("series identifier already added")
	ErrHashCollision          = errors.New("series identifier hash collision")
	ErrNoSeriesAdded          = errors.New("no series added to blob")
	ErrSeriesCountExceeded    = errors.New("series count exceeds blob limit")
	ErrDataPointCountMismatch = errors.New("decoded data point count mismatch")
	ErrSeriesNotFound         = errors.New("series not found in blob")
	ErrEncoderFinished        = errors.New("blob encoder already finished")
	ErrTruncatedPayload       = errors.New("encoded payload is truncated")
)
