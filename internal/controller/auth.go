package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/modtrackin/modtrackin/internal/constants"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/repository"
)

type AuthState struct {
	IsLoading    bool
	ErrorMessage string
	// SignedIn is set once the last submit succeeded.
	SignedIn bool
}

type LoginController struct {
	oracle identity.Oracle

	mu    sync.Mutex
	state AuthState
}

func NewLoginController(oracle identity.Oracle) *LoginController {
	return &LoginController{oracle: oracle}
}

func (c *LoginController) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Login signs in. Blank fields are rejected without contacting the oracle.
func (c *LoginController) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return c.finish(apperrors.Invalid("credentials", "email and password are required"))
	}
	c.mu.Lock()
	c.state = AuthState{IsLoading: true}
	c.mu.Unlock()

	if err := c.oracle.SignIn(ctx, strings.TrimSpace(email), password); err != nil {
		logger.Debug("sign in failed", "error", err)
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return c.finish(err)
		}
		return c.finish(fmt.Errorf("%w: %w", identity.ErrInvalidCredentials, err))
	}
	return c.finish(nil)
}

func (c *LoginController) finish(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = authResult(err)
	return err
}

func authResult(err error) AuthState {
	if err == nil {
		return AuthState{SignedIn: true}
	}
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return AuthState{ErrorMessage: identity.ErrInvalidCredentials.Error()}
	}
	return AuthState{ErrorMessage: messageFor(err)}
}

// RegisterForm is the registration input.
type RegisterForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate checks the form before any account is created.
func (f RegisterForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Email) == "" || f.Password == "" || f.ConfirmPassword == "" {
		return apperrors.Invalid("form", "all fields are required")
	}
	if f.Password != f.ConfirmPassword {
		return apperrors.Invalid("confirmPassword", "passwords do not match")
	}
	if len(f.Password) < constants.MinPasswordLength {
		return apperrors.Invalid("password", fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	}
	return nil
}

type RegisterController struct {
	oracle identity.Oracle
	users  *repository.UserRepository

	mu    sync.Mutex
	state AuthState
}

func NewRegisterController(oracle identity.Oracle, users *repository.UserRepository) *RegisterController {
	return &RegisterController{oracle: oracle, users: users}
}

func (c *RegisterController) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Register creates the account, which signs it in, and writes its profile.
func (c *RegisterController) Register(ctx context.Context, f RegisterForm) error {
	if err := f.Validate(); err != nil {
		return c.finish(err)
	}
	c.mu.Lock()
	c.state = AuthState{IsLoading: true}
	c.mu.Unlock()

	email := strings.TrimSpace(f.Email)
	if _, err := c.oracle.CreateUser(ctx, email, f.Password); err != nil {
		return c.finish(err)
	}
	if _, err := c.users.Create(ctx, strings.TrimSpace(f.Name), email); err != nil {
		return c.finish(fmt.Errorf("account created but profile could not be saved: %w", err))
	}
	return c.finish(nil)
}

func (c *RegisterController) finish(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.state = AuthState{SignedIn: true}
	} else {
		c.state = AuthState{ErrorMessage: messageFor(err)}
	}
	return err
}
