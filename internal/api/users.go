package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// --- User Methods ---

// ListUsers returns one page of users.
func (c *Client) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	query := pageQuery(q.Page, q.PageSize, map[string]string{"username_filter": q.UsernameFilter})
	data, err := c.get(ctx, "/api/manage/users", query)
	if err != nil {
		return nil, err
	}
	page, err := decode[UserPage](data)
	if err != nil {
		return nil, err
	}
	if page.Users == nil {
		page.Users = []User{}
	}
	return page, nil
}

// GetUser loads one user's details.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	path, err := userPath(id, "")
	if err != nil {
		return nil, err
	}
	data, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	user, err := decode[User](data)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = id
	}
	return user, nil
}

// CreateUser validates input, creates the user and returns the new id.
func (c *Client) CreateUser(ctx context.Context, input NewUserInput) (string, error) {
	if err := ValidateNewUser(input); err != nil {
		return "", err
	}
	data, err := c.post(ctx, "/api/manage/users", input)
	if err != nil {
		return "", err
	}
	out, err := decode[struct {
		UserID string `json:"user_id"`
	}](data)
	if err != nil {
		return "", err
	}
	return out.UserID, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	path, err := userPath(id, "")
	if err != nil {
		return err
	}
	_, err = c.del(ctx, path, nil)
	return err
}

// InputError is a rejected field of NewUserInput.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// Field names reported by InputError.
const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// ValidateNewUser checks creation input without contacting the server.
func ValidateNewUser(input NewUserInput) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Username":
		if fe.Tag() == "max" {
			return &InputError{Field: FieldUsername, Message: fmt.Sprintf("username must be at most %s characters", fe.Param())}
		}
		return &InputError{Field: FieldUsername, Message: "username is required"}
	case "Password":
		return &InputError{Field: FieldPassword, Message: "password is required"}
	case "ConfirmPassword":
		if fe.Tag() == "eqfield" {
			return &InputError{Field: FieldConfirmPassword, Message: "passwords do not match"}
		}
		return &InputError{Field: FieldConfirmPassword, Message: "password confirmation is required"}
	}
	return err
}

// ValidUserID reports whether id is a well-formed user id.
func ValidUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func userPath(id, suffix string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return "/api/manage/users/" + parsed.String() + suffix, nil
}
