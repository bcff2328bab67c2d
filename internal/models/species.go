package models

// Species is immutable reference data identified by its common name
type Species struct {
	ID         int64  `json:"id"`
	CommonName string `json:"common_name"`
}
