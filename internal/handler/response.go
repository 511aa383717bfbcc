package handler

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewNoticeResponse reports an expected empty outcome, such as calling
// next with nobody waiting. It is a success, not an error.
func NewNoticeResponse(message string) *Response {
	return &Response{
		Status:  "success",
		Message: message,
	}
}
