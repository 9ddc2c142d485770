package domain

// Modal identifies the single modal visible on the page.
type Modal string

const (
	ModalNone    Modal = ""
	ModalLogin   Modal = "login"
	ModalUpgrade Modal = "upgrade"
	ModalPricing Modal = "pricing"
)

// AuthMode selects which form the login modal shows.
type AuthMode string

const (
	AuthModeLogin  AuthMode = "login"
	AuthModeSignUp AuthMode = "signup"
)
