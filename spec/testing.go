package spec

// TestAPIVersion is the version of the API described by the testing spec.
const TestAPIVersion = "1.0.0"

// Test returns a small petstore document for use in tests. Don't mutate it;
// call Test again for a fresh copy.
func Test() *Spec {
	petRef := &Schema{Ref: "#/components/schemas/Pet"}

	listPetsMethod := &Operation{
		OperationID: "listPets",
		Responses: map[StatusCode]*Response{
			"200": {
				Description: "A list of pets",
				Content: map[string]*MediaType{
					"application/json": {
						Schema: &Schema{
							Type:  TypeArray,
							Items: petRef,
						},
					},
				},
			},
		},
	}
	createPetMethod := &Operation{
		OperationID: "createPet",
		RequestBody: &RequestBody{
			Required: true,
			Content: map[string]*MediaType{
				"application/json": {
					Schema: &Schema{
						Type: TypeObject,
						Properties: map[string]*Schema{
							"name": {Type: TypeString},
						},
						Required: []string{"name"},
					},
				},
				"application/x-www-form-urlencoded": {
					Schema: &Schema{Type: TypeObject},
				},
			},
		},
		Responses: map[StatusCode]*Response{
			"201": {
				Description: "Created",
				Content: map[string]*MediaType{
					"application/json": {Schema: petRef},
				},
			},
		},
	}
	showPetMethod := &Operation{
		OperationID: "showPetById",
		Responses: map[StatusCode]*Response{
			"200": {
				Description: "The pet",
				Content: map[string]*MediaType{
					"application/json": {Schema: petRef},
				},
			},
			"202": {Description: "Accepted, nothing to return"},
		},
	}
	deletePetMethod := &Operation{
		OperationID: "deletePet",
		Responses: map[StatusCode]*Response{
			"204": {Ref: "#/components/responses/NoContent"},
			"404": {Ref: "#/components/responses/DoesNotExist"},
		},
	}
	showMyPetMethod := &Operation{
		Responses: map[StatusCode]*Response{
			"200": {Ref: "#/components/responses/PetResponse"},
		},
	}
	uploadPhotoMethod := &Operation{
		OperationID: "uploadPhoto",
		RequestBody: &RequestBody{Ref: "#/components/requestBodies/Photo"},
		Responses: map[StatusCode]*Response{
			"200": {
				Content: map[string]*MediaType{
					"text/plain": {},
				},
			},
		},
	}
	tagPetMethod := &Operation{
		RequestBody: &RequestBody{Ref: "#/components/requestBodies/DoesNotExist"},
		Responses: map[StatusCode]*Response{
			"200": {Description: "Tagged"},
		},
	}
	missingSchemaMethod := &Operation{
		Responses: map[StatusCode]*Response{
			"200": {
				Content: map[string]*MediaType{
					"application/json": {
						Schema: &Schema{Ref: "#/components/schemas/DoesNotExist"},
					},
				},
			},
		},
	}
	namedPetMethod := &Operation{
		Responses: map[StatusCode]*Response{
			"200": {
				Content: map[string]*MediaType{
					"application/json": {
						Schema: &Schema{
							AllOf: []*Schema{
								{Ref: "#/components/schemas/Named"},
								{
									Type: TypeObject,
									Properties: map[string]*Schema{
										"age": {Type: TypeInteger},
									},
								},
							},
						},
					},
				},
			},
		},
	}

	return &Spec{
		OpenAPI: "3.0.3",
		Info: &Info{
			Title:   "Petstore",
			Version: TestAPIVersion,
		},
		Components: &Components{
			RequestBodies: map[string]*RequestBody{
				"Photo": {
					Content: map[string]*MediaType{
						"image/png": {},
					},
				},
			},
			Responses: map[string]*Response{
				"NoContent": {Description: "Nothing"},
				"PetResponse": {
					Content: map[string]*MediaType{
						"application/json": {Schema: petRef},
					},
				},
			},
			Schemas: map[string]*Schema{
				"Alias": {Ref: "#/components/schemas/Pet"},
				"Named": {
					Type: TypeObject,
					Properties: map[string]*Schema{
						"name": {Type: TypeString},
					},
				},
				"Pet": {
					Type: TypeObject,
					Properties: map[string]*Schema{
						"id":   {Type: TypeInteger},
						"name": {Type: TypeString},
						"tag":  {Type: TypeString, Nullable: true},
					},
					Required: []string{"id", "name"},
				},
			},
		},
		Paths: map[Path]*PathItem{
			"/missing_pets_schema": {Get: missingSchemaMethod},
			"/named":               {Get: namedPetMethod},
			"/pets":                {Get: listPetsMethod, Post: createPetMethod},
			"/pets/mine":           {Get: showMyPetMethod},
			"/pets/{id}":           {Get: showPetMethod, Delete: deletePetMethod},
			"/pets/{id}/photo":     {Put: uploadPhotoMethod},
			"/pets/{id}/tags":      {Post: tagPetMethod},
		},
	}
}
