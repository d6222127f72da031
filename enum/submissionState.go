package enum

// SubmissionState tracks a single order submission through its lifecycle.
// Every submission ends in exactly one of the two Resolved states.
type SubmissionState int

const (
	Draft SubmissionState = iota
	MarginChecked
	ChainSubmitted
	EngineNotified
	ResolvedSuccess
	ResolvedFailed
)

func (s SubmissionState) String() string {
	switch s {
	case Draft:
		return "Draft"
	case MarginChecked:
		return "MarginChecked"
	case ChainSubmitted:
		return "ChainSubmitted"
	case EngineNotified:
		return "EngineNotified"
	case ResolvedSuccess:
		return "ResolvedSuccess"
	case ResolvedFailed:
		return "ResolvedFailed"
	default:
		return ""
	}
}

func (s SubmissionState) Terminal() bool {
	return s == ResolvedSuccess || s == ResolvedFailed
}

// FailureReason explains a ResolvedFailed submission to the caller.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureInsufficientMargin
	FailureChainRejected
	FailureWalletUnavailable
	FailureTransport
)

func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "None"
	case FailureInsufficientMargin:
		return "InsufficientMargin"
	case FailureChainRejected:
		return "ChainRejected"
	case FailureWalletUnavailable:
		return "WalletUnavailable"
	case FailureTransport:
		return "TransportError"
	default:
		return ""
	}
}
