package constants

const (
	ROLE_ADMIN = "ADMIN"

	BOOKING_CODE_PREFIX   = "SS-"
	BOOKING_CODE_ALPHABET = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	BOOKING_CODE_LENGTH   = 8

	MIN_TICKET_QUANTITY = 1
	MAX_TICKET_QUANTITY = 10

	CHECKIN_CHANNEL = "checkins"

	WEBHOOK_PROVIDER_STRIPE = "stripe"
	WEBHOOK_STATUS_RECEIVED = "received"
	WEBHOOK_STATUS_HANDLED  = "handled"
	WEBHOOK_STATUS_FAILED   = "failed"
	WEBHOOK_STATUS_IGNORED  = "ignored"

	POLL_STATUS_CONFIRMED  = "confirmed"
	POLL_STATUS_CONFIRMING = "confirming"
	POLL_STATUS_FAILED     = "failed"
	POLL_STATUS_GAVE_UP    = "confirmation_failed"

	CHECKIN_MODE_TOGGLE = "toggle"
	CHECKIN_MODE_ONCE   = "once"
)

const (
	ERROR_INTERNAL_ERROR       = "Internal server error"
	ERROR_INPUT                = "Invalid input"
	ERROR_PARSE_DATA_TO_LOCALS = "Could not read request data"
	ERROR_CREATE               = "Could not create record"
	ERROR_UPDATE               = "Could not update record"
	ERROR_DELETE               = "Could not delete record"
	ERROR_CONFLICT             = "Request conflicts with existing data"
	DATA_INPUT_IS_NOT_NUMBER   = "Parameter must be a number"
	NOT_FOUND_RECORDS          = "Record not found"
	NOT_ADMIN                  = "Admin access required"
	MISSING_LOGIN_INPUT        = "Email and password are required"
	INVALID_CREDENTIALS        = "Invalid email or password"
	ADMIN_EXISTS               = "Admin with this email already exists"
	CAN_NOT_HASH_PASSWORD      = "Could not hash password"
	EVENT_NOT_FOUND            = "Event not found"
	EVENT_INACTIVE             = "Event is not open for registration"
	EVENT_SOLD_OUT             = "Not enough tickets remaining"
	EVENT_HAS_ATTENDEES        = "Event has attendees and cannot be permanently deleted"
	CAPACITY_BELOW_ATTENDEES   = "Capacity cannot be lower than the number of registered attendees"
	ATTENDEE_NOT_FOUND         = "Attendee not found"
	INVALID_BOOKING_CODE       = "Invalid booking code"
	SESSION_ID_REQUIRED        = "session_id is required"
	PAYMENT_PROVIDER_ERROR     = "Payment provider error"
	RESET_REQUEST_ACCEPTED     = "If an account exists for this email, a reset link has been sent"
	RESET_TOKEN_INVALID        = "Reset token is invalid or has expired"
	TICKET_CONFIRMING          = "Payment received, your ticket is still being confirmed"
	TICKET_NOT_CONFIRMED       = "Your payment was received but we could not confirm your ticket. Please contact support with your session id"
	IMAGE_UPLOAD_DISABLED      = "Image uploads are not configured"
	IMAGE_REQUIRED             = "An image file is required"
)
