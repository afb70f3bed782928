package dto

const ServiceName = "tesla-lock-chat"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

type UsageResponse struct {
	OK          bool   `json:"ok"`
	Usage       string `json:"usage"`
	RoomExample string `json:"roomExample"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Owner string `json:"owner,omitempty"`
}

func Fail(msg string) ErrorResponse {
	return ErrorResponse{OK: false, Error: msg}
}
