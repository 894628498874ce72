package embedded

import (
	_ "embed"
)

//go:embed openapi/petstore.yaml
var PetstoreSpec []byte

//go:embed openapi/petstore.json
var PetstoreSpecJSON []byte
