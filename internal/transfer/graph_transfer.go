package transfer

type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	IsTransient  bool   `json:"is_transient"`
	FbtraceID    string `json:"fbtrace_id"`
}

type GraphResponse struct {
	ID     string      `json:"id"`
	PostID string      `json:"post_id"`
	Error  *GraphError `json:"error"`
}

type InstagramContainerRequest struct {
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption"`
	AccessToken string `json:"access_token"`
}

type InstagramPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

type InstagramContainerStatus struct {
	ID         string      `json:"id"`
	StatusCode string      `json:"status_code"`
	Status     string      `json:"status"`
	Error      *GraphError `json:"error"`
}
