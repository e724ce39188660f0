package models

// Message is a frame pushed to the browser over the state stream.
type Message struct {
	Channel string            `json:"channel"`
	Event   string            `json:"event"`
	Command map[string]string `json:"command,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

// ErrorResponse is the error envelope returned by the backend and by the console API.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
