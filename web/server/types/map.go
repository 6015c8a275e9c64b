package types

import (
	"errors"
	"net/http"
)

type MapGetResponse struct {
	*Response
	Value string `json:"value"`
}

type MapSetRequest struct {
	Value *string `json:"value"`
}

// Bind validates the decoded request.
func (req *MapSetRequest) Bind(r *http.Request) error {
	if req.Value == nil {
		return errors.New("value not provided")
	}
	return nil
}

type MapSetResponse struct {
	*Response
}

type MapDeleteResponse struct {
	*Response
}

type MapKeysResponse struct {
	*Response
	Keys []string `json:"keys"`
}
