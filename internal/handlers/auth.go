package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"unicode"

	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type Identity interface {
	SignUp(ctx context.Context, creds services.Credentials) error
	SignIn(ctx context.Context, creds services.Credentials) (string, error)
}

type AuthHandler struct {
	identity Identity
}

type CredentialsRequest struct {
	Username string `json:"username" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required,min=8,max=20,password"`
}

type SignInResponse struct {
	AccessToken string `json:"accessToken"`
}

var registerValidators sync.Once

func NewAuthHandler(identity Identity) *AuthHandler {
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
				return StrongPassword(fl.Field().String())
			})
		}
	})
	return &AuthHandler{identity: identity}
}

// StrongPassword requires an upper-case letter, a lower-case letter and at
// least one digit or non-word character. A leading period is rejected.
func StrongPassword(password string) bool {
	if strings.HasPrefix(password, ".") || strings.ContainsRune(password, '\n') {
		return false
	}

	var upper, lower, digitOrSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r), r != '_' && !unicode.IsLetter(r):
			digitOrSymbol = true
		}
	}
	return upper && lower && digitOrSymbol
}

// bindStrictJSON decodes a single JSON object, rejecting unknown keys, then
// runs the binding tags.
func bindStrictJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return binding.Validator.ValidateStruct(dst)
}

func describeBindError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "password":
			messages = append(messages, "password is too weak")
		default:
			messages = append(messages, field+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req CredentialsRequest
	if err := bindStrictJSON(c, &req); err != nil {
		badRequest(c, describeBindError(err))
		return
	}

	err := h.identity.SignUp(c.Request.Context(), services.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req CredentialsRequest
	if err := bindStrictJSON(c, &req); err != nil {
		badRequest(c, describeBindError(err))
		return
	}

	token, err := h.identity.SignIn(c.Request.Context(), services.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SignInResponse{AccessToken: token})
}
