package entity

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type IngestTextRequest struct {
	Text string `json:"text"`
}

type ListDocumentsResponse struct {
	Documents []*Document `json:"documents"`
	Total     int         `json:"total"`
}

type UploadDocumentsResponse struct {
	Documents []*Document     `json:"documents"`
	Failed    []UploadFailure `json:"failed,omitempty"`
}

type UploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type DeleteDocumentResponse struct {
	DocumentID string `json:"document_id"`
	Deleted    bool   `json:"deleted"`
}

type SearchResponse struct {
	Results []RetrievalResult `json:"results"`
}

type ChatHTTPRequest struct {
	ChatTurn
	Format ResultFormat `json:"format,omitempty"`
}

type ListProvidersResponse struct {
	Providers []ProviderConfig `json:"providers"`
}

type ListModelsResponse struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
	Stale    bool     `json:"stale"`
}
