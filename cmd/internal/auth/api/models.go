package authapi

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

type signUpResponse struct {
	User                userResponse `json:"user"`
	ConfirmationPending bool         `json:"confirmation_pending"`
}

type signInResponse struct {
	OK bool `json:"ok"`
}

// meResponse is the viewer projection: loading until the first session
// fetch resolves, then an optional user.
type meResponse struct {
	Loading bool          `json:"loading"`
	User    *userResponse `json:"user"`
}
