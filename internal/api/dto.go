package api

// Both domain endpoints take form-encoded bodies. Defaults apply when a field
// is absent from the form.

type ListModelsForm struct {
	Provider  string `form:"provider"`
	APIKey    string `form:"api_key"`
	OllamaURL string `form:"ollama_url"`
}

type GenerateSlidesForm struct {
	Provider      string  `form:"provider"`
	Model         string  `form:"model"`
	APIKey        string  `form:"api_key"`
	Prompt        string  `form:"prompt"`
	NumSlides     int     `form:"num_slides,default=7"`
	BgImageBase64 string  `form:"bg_image_base64"`
	Opacity       int     `form:"opacity,default=100"`
	OllamaURL     string  `form:"ollama_url"`
	ContentFormat string  `form:"content_format,default=Bullet Points"`
	DetailLevel   string  `form:"detail_level,default=Brief"`
	Temperature   float64 `form:"temperature,default=0.7"`
}

type ModelsResponse struct {
	Models []string `json:"models"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned with status 200; the presence of Error is the
// failure signal.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
