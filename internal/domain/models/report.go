package models

// TradingMode selects how much work a generation does.
type TradingMode string

const (
	ModeQuickPulse TradingMode = "1"
	ModeProSignal  TradingMode = "2"
	ModeElite      TradingMode = "3"
)

// ParseMode maps a raw mode to a known one, defaulting to Elite.
func ParseMode(s string) TradingMode {
	switch TradingMode(s) {
	case ModeQuickPulse, ModeProSignal, ModeElite:
		return TradingMode(s)
	default:
		return ModeElite
	}
}

// Name returns the display name of the mode.
func (m TradingMode) Name() string {
	switch m {
	case ModeQuickPulse:
		return "Quick Pulse"
	case ModeProSignal:
		return "Pro Signal"
	default:
		return "Elite Mode (AI-Powered)"
	}
}

// WantsInsight reports whether the mode asks for a prose insight.
func (m TradingMode) WantsInsight() bool { return m == ModeElite }

// Insight is the prose commentary for a signal.
type Insight struct {
	Analysis   string `json:"analysis"`
	Confidence int    `json:"confidence"`
	Source     string `json:"source"`
}

// SignalReport is what a generation returns to its caller.
type SignalReport struct {
	Signal     TradingSignal `json:"signal"`
	RiskReward *float64      `json:"risk_reward,omitempty"`
	Mode       TradingMode   `json:"mode"`
	Insight    *Insight      `json:"insight,omitempty"`
	RecordID   string        `json:"record_id,omitempty"`
	Seed       int64         `json:"seed"`
	DataSource string        `json:"data_source,omitempty"`
}

// ScanResult aggregates a multi-symbol generation.
type ScanResult struct {
	Reports []SignalReport    `json:"reports"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// SignalRequestEvent is the payload of an asynchronous generation request.
type SignalRequestEvent struct {
	RequestID string `json:"request_id,omitempty"`
	Symbol    string `json:"symbol" validate:"required,min=2,max=20,alphanum"`
	Mode      string `json:"mode" default:"3" validate:"oneof=1 2 3"`
	UserID    string `json:"user_id,omitempty"`
	Seed      *int64 `json:"seed,omitempty"`
}
