package dto

// VerifyRequest is the body of POST /v1/verifications. FaceImage carries the
// submitted photo as base64-encoded bytes.
type VerifyRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Date      string `json:"date"`
	FaceImage string `json:"face_image"`
}

// VerifyResponse reports the fused verdict alongside both check signals.
type VerifyResponse struct {
	Participation bool `json:"participation"`
	NameMatch     bool `json:"name_match"`
	FaceMatch     bool `json:"face_match"`
}

// ErrorResponse carries a stable error code; internal detail stays in logs.
type ErrorResponse struct {
	Error string `json:"error"`
}

type RecordResponse struct {
	Email        string `json:"email"`
	Date         string `json:"date"`
	Name         string `json:"name"`
	Participated bool   `json:"participated"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
}

// WSEvent is a WebSocket message for the live verification feed.
type WSEvent struct {
	Type string         `json:"type"` // verification_recorded
	Data VerifyLogEntry `json:"data"`
}

// VerifyLogEntry is one completed verification as shown on the live feed.
type VerifyLogEntry struct {
	Email         string `json:"email"`
	Date          string `json:"date"`
	Name          string `json:"name"`
	NameMatch     bool   `json:"name_match"`
	FaceMatch     bool   `json:"face_match"`
	Participation bool   `json:"participation"`
	Timestamp     string `json:"timestamp"`
}
