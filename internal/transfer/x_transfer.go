package transfer

type TweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type TweetRequest struct {
	Text  string      `json:"text"`
	Media *TweetMedia `json:"media,omitempty"`
}

type XError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type TweetResponse struct {
	Data *struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Errors []XError `json:"errors"`
	Title  string   `json:"title"`
	Detail string   `json:"detail"`
}

type MediaUploadResponse struct {
	MediaID       int64    `json:"media_id"`
	MediaIDString string   `json:"media_id_string"`
	Errors        []XError `json:"errors"`
}
