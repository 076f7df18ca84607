package migration

import (
	"encoding/json"
	"fmt"
)

const (
	pactSpecificationVersion = "2.0.0"
	pactRequestMethod        = "POST"
	pactRequestPath          = "/vector-operation"
)

type pactDocument struct {
	Consumer     pactParty         `json:"consumer"`
	Provider     pactParty         `json:"provider"`
	Interactions []pactInteraction `json:"interactions"`
	Metadata     pactMetadata      `json:"metadata"`
}

type pactParty struct {
	Name string `json:"name"`
}

type pactInteraction struct {
	Description string       `json:"description"`
	Request     pactRequest  `json:"request"`
	Response    pactResponse `json:"response"`
}

type pactRequest struct {
	Method string  `json:"method"`
	Path   string  `json:"path"`
	Body   Request `json:"body"`
}

type pactResponse struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

type pactMetadata struct {
	PactSpecification struct {
		Version string `json:"version"`
	} `json:"pactSpecification"`
}

// PactDocument renders contract as an indented Pact v2 JSON document. Every
// interaction becomes a POST to /vector-operation whose body is the request,
// answered with 200, 404 or 500 by expected status.
func PactDocument(contract Contract) ([]byte, error) {
	doc := pactDocument{
		Consumer:     pactParty{Name: contract.Consumer},
		Provider:     pactParty{Name: contract.Provider},
		Interactions: make([]pactInteraction, 0, len(contract.Interactions)),
	}
	doc.Metadata.PactSpecification.Version = pactSpecificationVersion

	for _, in := range contract.Interactions {
		body := in.Response.Data
		if body == nil {
			body = map[string]any{}
		}
		doc.Interactions = append(doc.Interactions, pactInteraction{
			Description: in.Description,
			Request: pactRequest{
				Method: pactRequestMethod,
				Path:   pactRequestPath,
				Body:   in.Request,
			},
			Response: pactResponse{
				Status: in.Response.Status.HTTPStatus(),
				Body:   body,
			},
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render pact for consumer %s: %w", contract.Consumer, err)
	}
	return data, nil
}
