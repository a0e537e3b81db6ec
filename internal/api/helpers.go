package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"deskhub/internal/auth"
	apperrors "deskhub/internal/errors"
	"deskhub/internal/service"
	"deskhub/internal/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("missing required field: %s", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s=%s)", fe.Field(), fe.Tag(), fe.Param())
	}
}

// decodeJSON reads the body into dst and runs its validate tags.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ErrBadRequest("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.ErrBadRequest(validationMessage(err))
	}
	return nil
}

func parseDate(field, value string) (civil.Date, error) {
	d, err := utils.ParseDate(value)
	if err != nil {
		return civil.Date{}, apperrors.ErrBadRequest(fmt.Sprintf("%s: %v", field, err))
	}
	return d, nil
}

func parseDateRange(start, end string) (civil.Date, civil.Date, error) {
	s, err := parseDate("startDate", start)
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	e, err := parseDate("endDate", end)
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	if e.Before(s) {
		return civil.Date{}, civil.Date{}, service.ErrInvalidRange
	}
	return s, e, nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, apperrors.ErrBadRequest("invalid id")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.ErrBadRequest(fmt.Sprintf("%s must be a number", key))
	}
	return n, nil
}

func queryDate(r *http.Request, key string) (*civil.Date, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := parseDate(key, v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func paging(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func actorFrom(r *http.Request) service.Actor {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		return service.Actor{}
	}
	return service.Actor{ID: claims.UserID, Role: claims.Role}
}
