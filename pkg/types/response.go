package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ListMeta accompanies collection responses that come from a cached store.
type ListMeta struct {
	Total   int    `json:"total"`
	HasMore bool   `json:"hasMore"`
	Stale   bool   `json:"stale"`
	Status  string `json:"status,omitempty"`
}

type ListEnvelope struct {
	Data any      `json:"data"`
	Meta ListMeta `json:"meta"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
