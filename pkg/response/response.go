package response

import "erp-backend/pkg/apperror"

// Response is the standard API envelope.
type Response struct {
	Status     string      `json:"status"` // "success" or "error"
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	ErrorKind  string      `json:"error_kind,omitempty"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Meta carries pagination info alongside a list payload.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Paginated wraps a list payload plus pagination metadata.
func Paginated(statusCode int, data interface{}, page, limit int, total int64) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data: map[string]interface{}{
			"items": data,
			"meta":  Meta{Page: page, Limit: limit, Total: total},
		},
	}
}

// Error wraps a plain message in an error envelope.
func Error(statusCode int, msg string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      msg,
	}
}

// FromError builds an error envelope carrying the stable error kind so
// clients can branch on it without parsing messages.
func FromError(err error) (int, Response) {
	status := apperror.HTTPStatus(err)
	return status, Response{
		Status:     "error",
		StatusCode: status,
		Error:      err.Error(),
		ErrorKind:  string(apperror.KindOf(err)),
	}
}
