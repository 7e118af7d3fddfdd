package entities

// Mode is the data source state of a scan
type Mode string

const (
	ModeUnconfigured Mode = "unconfigured"
	ModeLive         Mode = "live"
	ModeDemoFallback Mode = "demo"
)

// ScanProgress is an informational progress update
type ScanProgress struct {
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	Message    string `json:"message"`
}

// PartialResults is a snapshot of recipients emitted during a scan
type PartialResults struct {
	Recipients     []RecipientAnalysis `json:"recipients"`
	TotalTransfers int                 `json:"total_transfers"`
	TokenSymbol    string              `json:"token_symbol"`
	WalletBalance  string              `json:"wallet_balance,omitempty"`
}

// ScanResult is the terminal outcome of one scan invocation
type ScanResult struct {
	Chain          string              `json:"chain"`
	Recipients     []RecipientAnalysis `json:"recipients"`
	TotalTransfers int                 `json:"total_transfers"`
	TokenSymbol    string              `json:"token_symbol"`
	IsDemo         bool                `json:"is_demo"`
	WalletBalance  string              `json:"wallet_balance,omitempty"`
	Error          string              `json:"error,omitempty"`
	Message        string              `json:"message,omitempty"`
	Truncated      bool                `json:"truncated"`
	SkippedEvents  int                 `json:"skipped_events"`
	FailedBalances int                 `json:"failed_balances"`
}

// TransferListResult is the outcome of an outgoing transfer listing
type TransferListResult struct {
	Chain     string     `json:"chain"`
	Transfers []Transfer `json:"transfers"`
	IsDemo    bool       `json:"is_demo"`
	Error     string     `json:"error,omitempty"`
	Truncated bool       `json:"truncated"`
}
