package serverutils

type Response struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Code:    200,
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) Response {
	return Response{
		Code:    code,
		Success: false,
		Message: message,
	}
}

func ValidationErrorResponse(fields map[string]string) Response {
	return Response{
		Code:    400,
		Success: false,
		Message: "Validation failed",
		Data:    fields,
	}
}
