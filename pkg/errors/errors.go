package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 通用错误。
var (
	Unauthorized    = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	InvalidKind     = Definition{Code: "INVALID_KIND", Message: "Unknown listing kind"}
	RateLimited     = Definition{Code: "RATE_LIMITED", Message: "Too many requests"}
	InternalError   = Definition{Code: "INTERNAL_ERROR", Message: "Internal server error"}
	ListingNotFound = Definition{Code: "LISTING_NOT_FOUND", Message: "Listing not found"}
)

// 草稿会话错误。
var (
	SessionNotFound  = Definition{Code: "SESSION_NOT_FOUND", Message: "Draft session not found or expired"}
	ValidationFailed = Definition{Code: "VALIDATION_FAILED", Message: "Some fields need attention"}
	UnknownField     = Definition{Code: "UNKNOWN_FIELD", Message: "Unknown or invalid field"}
	StepNotReachable = Definition{Code: "STEP_NOT_REACHABLE", Message: "Step cannot be opened from here"}
)

// 提交错误。
var (
	SubmissionFailed     = Definition{Code: "SUBMISSION_FAILED", Message: "Listing could not be saved"}
	SubmitInProgress     = Definition{Code: "SUBMIT_IN_PROGRESS", Message: "A submission for this draft is already running"}
	InvalidPrice         = Definition{Code: "INVALID_PRICE", Message: "Price is not a number"}
	ItineraryNotSaved    = Definition{Code: "ITINERARY_NOT_SAVED", Message: "Listing saved but its itinerary could not be stored"}
	ReferenceUnavailable = Definition{Code: "REFERENCE_UNAVAILABLE", Message: "Reference data unavailable, showing defaults"}
)

// 上传错误。
var (
	UploadFailed      = Definition{Code: "UPLOAD_FAILED", Message: "Upload failed"}
	UploadInvalidType = Definition{Code: "UPLOAD_INVALID_TYPE", Message: "Only JPEG, PNG, GIF and WebP images are accepted"}
	UploadTooLarge    = Definition{Code: "UPLOAD_TOO_LARGE", Message: "File exceeds the upload size limit"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	Unauthorized.Code:         Unauthorized,
	InvalidRequest.Code:       InvalidRequest,
	InvalidKind.Code:          InvalidKind,
	RateLimited.Code:          RateLimited,
	InternalError.Code:        InternalError,
	ListingNotFound.Code:      ListingNotFound,
	SessionNotFound.Code:      SessionNotFound,
	ValidationFailed.Code:     ValidationFailed,
	UnknownField.Code:         UnknownField,
	StepNotReachable.Code:     StepNotReachable,
	SubmissionFailed.Code:     SubmissionFailed,
	SubmitInProgress.Code:     SubmitInProgress,
	InvalidPrice.Code:         InvalidPrice,
	ItineraryNotSaved.Code:    ItineraryNotSaved,
	ReferenceUnavailable.Code: ReferenceUnavailable,
	UploadFailed.Code:         UploadFailed,
	UploadInvalidType.Code:    UploadInvalidType,
	UploadTooLarge.Code:       UploadTooLarge,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
