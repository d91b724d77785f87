package handler

type updateProfileRequest struct {
	FullName   *string `json:"fullName"   validate:"omitempty,min=1"`
	Bio        *string `json:"bio"        validate:"omitempty,max=150"`
	ProfilePic *string `json:"profilePic" validate:"omitempty,url"`
	IsPrivate  *bool   `json:"isPrivate"`
}
