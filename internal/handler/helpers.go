package handler

import (
	"net/http"
	"reflect"
	"strconv"

	"stockroom/internal/apierror"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("malformed request body")
		c.JSON(http.StatusBadRequest, &apierror.APIError{Kind: apierror.KindValidation, Detail: "invalid JSON body"})
		return false
	}
	return validateRequest(c, req)
}

// bindQuery binds query parameters into filter and runs its validator tags,
// so paging bounds such as per_page max are enforced before the service runs.
func bindQuery(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("malformed query")
		c.JSON(http.StatusBadRequest, &apierror.APIError{Kind: apierror.KindValidation, Detail: "invalid query parameters"})
		return false
	}
	return validateRequest(c, filter)
}

// validateRequest writes a 422 with the failing field tags.
func validateRequest(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("validator misuse")
		c.JSON(http.StatusBadRequest, &apierror.APIError{Kind: apierror.KindValidation, Detail: "invalid request"})
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// respondError writes the envelope for err. 5xx details are logged, never sent.
func respondError(c *gin.Context, err error) {
	status, body := apierror.Envelope(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

// parseID reads a positive integer path parameter. It writes a 400 and
// returns false when the value is malformed.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, &apierror.APIError{Kind: apierror.KindValidation, Detail: "invalid " + name + ": " + raw})
		return 0, false
	}
	return uint(id), true
}

// actorFrom builds the service Actor from the JWT claims and request metadata.
func actorFrom(c *gin.Context) service.Actor {
	a := service.Actor{
		IP:        c.ClientIP(),
		RequestID: c.GetString(middleware.RequestIDKey),
	}
	if claims := middleware.GetClaims(c); claims != nil {
		a.UserID = claims.UserID
		a.Role = claims.Role
	}
	return a
}
