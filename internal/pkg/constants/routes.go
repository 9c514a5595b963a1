package constants

// Static route constants
const (
	PublicRoute       = "/"
	LoginRoute        = "/login"
	UserSettingsRoute = "/user/settings"
	BillingConfirm    = "/billing/confirm"
)
