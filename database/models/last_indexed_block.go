package models

// LastIndexedBlock is the resume cursor of one chain's event source. Every
// block up to and including BlockNumber has been delivered to the controller,
// so a restart continues from the next block.
type LastIndexedBlock struct {
	Chain       string `json:"chain" bson:"chain"`
	BlockNumber uint64 `json:"block_number" bson:"block_number"`
}
