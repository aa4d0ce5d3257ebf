package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrPermissionDenied  ErrCode = "PERMISSION_DENIED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"
	ErrProfileMismatch   ErrCode = "PROFILE_MISMATCH"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Exam groups ───────────────────────────────────────────────────
	ErrGroupNotFound     ErrCode = "EXAM_GROUP_NOT_FOUND"
	ErrUnknownPaper      ErrCode = "UNKNOWN_EXAM_PAPER"
	ErrSubmissionFailed  ErrCode = "SUBMISSION_FAILED"
	ErrSessionNotRunning ErrCode = "SESSION_NOT_RUNNING"
	ErrAnswerLocked      ErrCode = "ANSWER_LOCKED"
	ErrUnknownQuestion   ErrCode = "UNKNOWN_QUESTION"
	ErrNotLastTab        ErrCode = "NOT_LAST_TAB"
	ErrSessionInProgress ErrCode = "SESSION_IN_PROGRESS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

var messages = map[ErrCode]string{
	ErrSessionInvalidated: "Phiên đăng nhập đã kết thúc. Vui lòng đăng nhập lại.",
	ErrTokenRequired:      "Cần có mã xác thực.",
	ErrTokenInvalid:       "Mã xác thực không hợp lệ.",
	ErrTokenExpired:       "Mã xác thực đã hết hạn.",

	ErrPermissionDenied:  "Bạn không có quyền thực hiện thao tác này.",
	ErrStudentAccessOnly: "Chức năng này chỉ dành cho thí sinh.",
	ErrAdminAccessOnly:   "Chức năng này chỉ dành cho quản trị viên.",
	ErrProfileMismatch:   "Bài nộp không thuộc về tài khoản của bạn.",

	ErrValidation:     "Dữ liệu không hợp lệ. Vui lòng kiểm tra lại.",
	ErrInvalidID:      "Mã định danh không hợp lệ.",
	ErrInvalidPayload: "Nội dung yêu cầu không hợp lệ.",

	ErrGroupNotFound:     "Không tìm thấy bộ đề thi.",
	ErrUnknownPaper:      "Bài thi không thuộc bộ đề này.",
	ErrSubmissionFailed:  "Nộp bài thất bại. Vui lòng thử lại.",
	ErrSessionNotRunning: "Phiên thi chưa bắt đầu hoặc đã kết thúc.",
	ErrAnswerLocked:      "Câu hỏi không thuộc phần thi đang làm.",
	ErrUnknownQuestion:   "Không tìm thấy câu hỏi.",
	ErrNotLastTab:        "Chỉ có thể nộp bài ở phần thi cuối cùng.",
	ErrSessionInProgress: "Bài thi đang được làm trong phiên thi trực tuyến.",

	ErrRateLimitExceeded: "Quá nhiều yêu cầu. Vui lòng thử lại sau.",

	ErrInternal:           "Đã xảy ra lỗi máy chủ.",
	ErrServiceUnavailable: "Dịch vụ tạm thời không khả dụng.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Đã xảy ra lỗi không xác định."
}
