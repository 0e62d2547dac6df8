package sheet

// Actions understood by the sheet endpoint.
const (
	ActionLoad = "load"
	ActionSave = "save"
)

// Response status markers.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request is the JSON body sent to the endpoint. Load requests may carry the
// action as a query parameter instead.
type Request struct {
	Action       string    `json:"action"`
	Transactions WireTable `json:"transactions,omitempty"`
	Users        WireTable `json:"users,omitempty"`
}

// Response is the JSON body returned by the endpoint.
type Response struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Data    *Payload `json:"data,omitempty"`
}

// Payload holds both sheets of a load response.
type Payload struct {
	Transactions WireTable `json:"transactions"`
	Users        WireTable `json:"users"`
}
