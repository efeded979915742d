package ports

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// FactStatusResponse is the body of a successful fact status query.
type FactStatusResponse struct {
	FactKey  string `json:"fact_key"`
	Exists   bool   `json:"exists"`
	IsStable bool   `json:"is_stable"`
}

// FactPublicationRequest is the body of a publication request.
type FactPublicationRequest struct {
	FactKey     string         `json:"fact_key"`
	Payload     map[string]any `json:"payload"`
	RequesterID string         `json:"requester_id"`
}

// FactPublicationResponse is the body of a successful publication request.
type FactPublicationResponse struct {
	FactKey  string `json:"fact_key"`
	Exists   bool   `json:"exists"`
	IsStable bool   `json:"is_stable"`
	Queued   bool   `json:"queued"`
}

// ARCIngestRequest is the body of an ARC merkle proof callback.
type ARCIngestRequest struct {
	Txid        string `json:"txid"`
	MerklePath  string `json:"merklePath"`
	BlockHeight uint32 `json:"blockHeight"`
}

// StatusResponse is the body of operations that only report success.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FundingRequest is the body of a funding registration.
type FundingRequest struct {
	Kind     string `json:"kind"`
	Txid     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Satoshis uint64 `json:"satoshis"`
}
