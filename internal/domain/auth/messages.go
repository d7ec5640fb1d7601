package auth

// Identity provider failure codes.
const (
	FailEmailInUse          = "auth/email-already-in-use"
	FailWeakPassword        = "auth/weak-password"
	FailInvalidEmail        = "auth/invalid-email"
	FailOperationNotAllowed = "auth/operation-not-allowed"
	FailUserNotFound        = "auth/user-not-found"
	FailWrongPassword       = "auth/wrong-password"
	FailUserDisabled        = "auth/user-disabled"
	FailInvalidCredential   = "auth/invalid-credential"
	FailTooManyRequests     = "auth/too-many-requests"
	FailPopupClosed         = "auth/popup-closed-by-user"
	FailPopupBlocked        = "auth/popup-blocked"
	FailAccountExists       = "auth/account-exists-with-different-credential"
)

var registrationMessages = map[string]string{
	FailEmailInUse:          "This email is already registered. Please use a different email or try logging in.",
	FailWeakPassword:        "Password is too weak. Please use at least 6 characters.",
	FailInvalidEmail:        "Please enter a valid email address.",
	FailOperationNotAllowed: "Email registration is currently disabled. Please contact support.",
}

var loginMessages = map[string]string{
	FailUserNotFound:      "No account found with this email. Please check your email or sign up.",
	FailWrongPassword:     "Incorrect password. Please try again.",
	FailInvalidEmail:      "Please enter a valid email address.",
	FailUserDisabled:      "This account has been disabled. Please contact support.",
	FailInvalidCredential: "Invalid email or password. Please check your credentials and try again.",
	FailTooManyRequests:   "Too many failed attempts. Please try again later.",
}

var googleMessages = map[string]string{
	FailPopupClosed:   "Login was cancelled. Please try again.",
	FailPopupBlocked:  "Popup was blocked by your browser. Please allow popups and try again.",
	FailAccountExists: "An account already exists with this email. Please use email login instead.",
}

// RegistrationMessage maps a registration failure to the text shown to users.
func RegistrationMessage(code string) string {
	if msg, ok := registrationMessages[code]; ok {
		return msg
	}
	return "Registration failed. Please check your information and try again."
}

// LoginMessage maps a login failure to the text shown to users.
func LoginMessage(code string) string {
	if msg, ok := loginMessages[code]; ok {
		return msg
	}
	return "Login failed. Please check your email and password."
}

// GoogleMessage maps a Google sign-in failure to the text shown to users.
func GoogleMessage(code string) string {
	if msg, ok := googleMessages[code]; ok {
		return msg
	}
	return "Google login failed. Please try again or use email login."
}
