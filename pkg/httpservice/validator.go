package httpservice

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/panelkitchens/quotekit/pkg/errors"
)

var (
	validate     = newValidator()
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}[0-9]$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	return validate
}

// BindJSON decodes the JSON body into req and validates it.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return bindError("Invalid JSON", err)
	}
	return ValidateStruct(req)
}

// BindQuery decodes query parameters into req and validates it.
func BindQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return bindError("Invalid query parameters", err)
	}
	return ValidateStruct(req)
}

// ValidateStruct validates req and returns a VALIDATION_ERROR AppError whose
// details map each failing field to its rule.
func ValidateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError("Validation failed: " + err.Error())
	}
	return validationError(verrs)
}

func bindError(msg string, err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewAppErrorWithErr(errors.ErrorCodePayloadTooLarge, "Request body too large", http.StatusRequestEntityTooLarge, err)
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return validationError(verrs)
	}
	return errors.NewAppErrorWithErr(errors.ErrorCodeValidation, msg+": "+err.Error(), http.StatusBadRequest, err)
}

func validationError(verrs validator.ValidationErrors) error {
	details := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fieldPath(fe.Namespace())] = rule
	}
	return errors.NewValidationError(fmt.Sprintf("Validation failed on %d field(s)", len(verrs))).WithDetails(details)
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
