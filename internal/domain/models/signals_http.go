package models

// Requests for the signals HTTP endpoints.

type GenerateSignalRequest struct {
	Symbol   string `json:"symbol" validate:"required,min=2,max=20,alphanum"`
	Mode     string `json:"mode" default:"3" validate:"oneof=1 2 3"`
	Interval string `json:"interval" default:"15m" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
	Limit    int    `json:"limit" default:"50" validate:"gte=10,lte=1000"`
	Seed     *int64 `json:"seed,omitempty"`
}

type ScanSignalsRequest struct {
	Symbols string `query:"symbols" validate:"required"`
	Mode    string `query:"mode" default:"2" validate:"oneof=1 2 3"`
}

type ListSignalsRequest struct {
	UserID string `query:"user_id"`
	Symbol string `query:"symbol"`
	Status string `query:"status" validate:"omitempty,oneof=active closed stopped"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
	Offset int    `query:"offset" validate:"gte=0"`
	Since  string `query:"since"` // RFC3339 or unix seconds
}

type SignalIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

type UpdateStatusRequest struct {
	ID     string `param:"id" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=active closed stopped"`
}

type HistoryRequest struct {
	Symbol string `param:"symbol" validate:"required,alphanum"`
	Limit  int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type RiskRewardRequest struct {
	Action   string  `json:"action" validate:"required,oneof=BuyOnPullback SellOnRally"`
	Entry    float64 `json:"entry" validate:"gt=0"`
	StopLoss float64 `json:"stop_loss" validate:"gt=0"`
	TP1      float64 `json:"tp1" validate:"gt=0"`
}
