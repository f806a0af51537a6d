package domain

import "github.com/go-playground/validator/v10"

// validate is the package-level validator instance used by all Validate
// methods. Struct rules live in the field tags next to the fields they
// constrain.
var validate = validator.New(validator.WithRequiredStructEnabled())
