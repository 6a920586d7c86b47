package api

// TokenPair is the credential pair issued by the backend on refresh and
// signup. Both values are opaque bearer strings.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserInfo is the full profile record returned by /account/info.
type UserInfo struct {
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Provider     string `json:"provider"`
	ProviderID   string `json:"providerId"`
	ProfileImage string `json:"profileImage"`
	Name         string `json:"name"`
	CohortYear   string `json:"cohortYear"`
	ClassNum     string `json:"classNum"`
	Region       string `json:"region"`
	Gender       string `json:"gender"`
	BirthDate    string `json:"birthDate"` // YYYY-MM-DD
}

// SignupRequest completes local registration after a social login.
type SignupRequest struct {
	Email        string `json:"email"`
	Provider     string `json:"provider"`
	ProviderID   string `json:"providerId"`
	ProfileImage string `json:"profileImage"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	CohortYear   string `json:"cohortYear"`
	ClassNum     string `json:"classNum"`
	Region       string `json:"region"`
	Gender       string `json:"gender"` // "M" or "F"
	BirthDate    string `json:"birthDate"`
}

// UpdateAccountRequest carries the editable profile fields.
type UpdateAccountRequest struct {
	Username string `json:"username,omitempty"`
	ClassNum string `json:"classNum,omitempty"`
}
