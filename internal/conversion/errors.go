package conversion

import "errors"

var (
	// ErrEmptyDraft indicates no draft line has both a product and a positive quantity.
	ErrEmptyDraft = errors.New("conversion: draft has no valid lines")
	// ErrNoTarget indicates there is no order to convert.
	ErrNoTarget = errors.New("conversion: no target order")
	// ErrOrderCancelled indicates the order is cancelled and can never be converted.
	ErrOrderCancelled = errors.New("conversion: order is cancelled")
	// ErrOrderCompleted indicates the order was already converted.
	ErrOrderCompleted = errors.New("conversion: order already completed")
	// ErrSubmitInFlight indicates a submission for the order is still running.
	ErrSubmitInFlight = errors.New("conversion: submission in flight")
	// ErrNotDrafting indicates the workflow is not accepting edits or submissions.
	ErrNotDrafting = errors.New("conversion: workflow is not drafting")
	// ErrLineOutOfRange indicates a draft line index that does not exist.
	ErrLineOutOfRange = errors.New("conversion: draft line out of range")
	// ErrStale indicates a fetch result arrived after its workflow was closed.
	ErrStale = errors.New("conversion: result discarded")
	// ErrUnknownCommitMode indicates an unsupported commit mode setting.
	ErrUnknownCommitMode = errors.New("conversion: unknown commit mode")
)

// FallbackMessage is shown when the backend gives no usable error message.
const FallbackMessage = "No se pudo completar la venta"
