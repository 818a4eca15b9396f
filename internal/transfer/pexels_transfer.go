package transfer

type PexelsPhotoSource struct {
	Original  string `json:"original"`
	Large     string `json:"large"`
	Landscape string `json:"landscape"`
	Square    string `json:"square"`
}

type PexelsPhoto struct {
	ID           int64             `json:"id"`
	Photographer string            `json:"photographer"`
	Src          PexelsPhotoSource `json:"src"`
}

type PexelsSearchResponse struct {
	TotalResults int           `json:"total_results"`
	Photos       []PexelsPhoto `json:"photos"`
}
