package entity

// EnqueueRequest re-enqueues a change into a pipeline.
type EnqueueRequest struct {
	Pipeline string `json:"pipeline" validate:"required"`
	Change   string `json:"change" validate:"required"`
}

// EnqueueRefRequest enqueues a ref update into a pipeline.
type EnqueueRefRequest struct {
	Pipeline string `json:"pipeline" validate:"required"`
	Ref      string `json:"ref" validate:"required"`
	Oldrev   string `json:"oldrev,omitempty"`
	Newrev   string `json:"newrev,omitempty"`
}

// AutoholdRequest asks the scheduler to hold the nodes of failing builds.
type AutoholdRequest struct {
	Job                string `json:"job" validate:"required"`
	Change             string `json:"change,omitempty"`
	Ref                string `json:"ref,omitempty"`
	Reason             string `json:"reason" validate:"required"`
	Count              int    `json:"count" validate:"min=1"`
	NodeHoldExpiration int    `json:"node_hold_expiration"`
}
