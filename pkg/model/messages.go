package model

// User-facing messages
const (
	MessageInfo    = "Info"
	MessageWarning = "Warning"
	MessageError   = "Error"
	MessageConfirm = "Confirm"

	DeletePrompt = "Are you sure you want to delete the '%s' record?"

	RecordSuccessAdd    = "Record successfully added."
	RecordSuccessUpdate = "Record successfully updated."
	RecordSuccessDelete = "Record successfully deleted."

	ErrorProcessing      = "An error was encountered while processing the request."
	ErrorRecordExists    = "Record already exists."
	ErrorRecordNotExists = "Record does not exist."
	ErrorRecordInUse     = "This record is currently in use."
	ErrorRecordInvalid   = "Record is not valid."

	ErrorDatabase         = "A database connection issue occured while processing your request. Please contact administrator."
	ErrorNetworkTransport = "A network transport issue occured while processing your request. Please contact administrator."
	ErrorModel            = "A model issue occured while processing your request. Please contact administrator."

	ErrorInvalidLogin    = "Invalid login attempt."
	ErrorInvalidCode     = "Invalid authenticator code."
	ErrorInvalidCreation = "Invalid creation attempt."
	ErrorInvalidUpdate   = "Invalid update attempt."
	ErrorInvalidDelete   = "Invalid delete attempt."
	ErrorInvalidRegister = "Invalid register attempt."

	ErrorInvalidForgotPassword = "Invalid forgot password attempt."
	ErrorInvalidResetPassword  = "Invalid reset password attempt."
	ErrorResetCodeRequired     = "A code must be supplied for password reset."
	ErrorPageNotFound          = "The page you requested could not be found."

	TwoFactorEnabled  = "Two-factor authentication enabled."
	TwoFactorDisabled = "Two-factor authentication disabled."

	RegionDeletedOnSave = "Unable to save changes. The region was deleted by another user."
	RegionDeletedOnEdit = "Unable to save. The region was deleted by another user. If you want to create this record, click Save button."
	RegionModified      = "The record you attempted to edit was modified by another user after you got the original value. " +
		"The edit operation was canceled and the current values in the database have been displayed. " +
		"If you still want to edit this record, click the Save button again."
)

// ValidationResult is one model-state error. MemberName is empty for form-level errors.
type ValidationResult struct {
	MemberName string
	Message    string
}

// NewValidationResult builds a form-level validation result
func NewValidationResult(message string) *ValidationResult {
	return &ValidationResult{Message: message}
}
