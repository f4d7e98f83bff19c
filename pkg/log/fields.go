package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Relay
	FieldClientID = "client_id"
	FieldRoomID   = "room_id"
	FieldMsgType  = "msg_type"
	FieldRecordID = "record_id"
)
