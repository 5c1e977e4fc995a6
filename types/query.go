package types

import (
	"fmt"
	"sync"

	"studydigest/loader"

	"github.com/go-playground/validator/v10"
)

const (
	ActionUpload = "upload"
	ActionResume = "resume"
)

type Validater interface {
	Validate() map[string]string
}

// ActionParams is the form posted to the index page.
type ActionParams struct {
	Action  string `form:"action" validate:"required,oneof=upload resume"`
	Niveau  string `form:"niveau" validate:"max=64"`
	Domaine string `form:"domaine" validate:"max=128"`
}

// UploadParams describes the file field of an upload action.
type UploadParams struct {
	Filename string `validate:"required,docext"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("docext", func(fl validator.FieldLevel) bool {
			return loader.IsAllowed(fl.Field().String())
		})
	})
	return validate
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *ActionParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *UploadParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	if err := validatorInstance().Struct(s); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return map[string]string{"_": err.Error()}
		}
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
