package ctxutil

import "context"

type contextKey string

const (
	requestKey contextKey = "request_data"
)

// RequestData carries the authenticated identity through service calls.
type RequestData struct {
	UserID    string
	Role      string
	RequestID string
}

func WithRequestData(ctx context.Context, data RequestData) context.Context {
	return context.WithValue(ctx, requestKey, data)
}

func GetRequestData(ctx context.Context) (RequestData, bool) {
	data, ok := ctx.Value(requestKey).(RequestData)
	return data, ok
}
