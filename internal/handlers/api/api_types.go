package api

import "time"

const apiVersion = "1.0"

type APIResponse struct {
	APIVersion string        `json:"apiVersion"`
	Data       any           `json:"data,omitempty"`
	Error      *APIErrorInfo `json:"error,omitempty"`
}

type APIErrorInfo struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func NewDataResponse(data any) APIResponse {
	return APIResponse{
		APIVersion: apiVersion,
		Data:       data,
	}
}

func NewErrorResponse(code int, reason string, message string) APIResponse {
	return APIResponse{
		APIVersion: apiVersion,
		Error: &APIErrorInfo{
			Code:    code,
			Reason:  reason,
			Message: message,
		},
	}
}

// UserInfoResponse is the wire shape for a user record. The password hash
// never leaves the service.
type UserInfoResponse struct {
	ID          uint64     `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}
