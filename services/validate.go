package services

import "github.com/go-playground/validator/v10"

// shared request validator for service-level fiber handlers
var validate = validator.New()
