package handler

type createPostRequest struct {
	MediaURL  string   `json:"mediaUrl"  validate:"required,url"`
	Caption   string   `json:"caption"   validate:"max=2200"`
	Location  string   `json:"location"`
	MediaType string   `json:"mediaType" validate:"omitempty,oneof=image video reel"`
	Tags      []string `json:"tags"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

type captionRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type captionResponse struct {
	Caption string `json:"caption"`
}
