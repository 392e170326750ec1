package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/controller"
	"github.com/modtrackin/modtrackin/internal/docstore"
)

type RegisterCmd struct {
	Name     string `help:"Display name."`
	Email    string `help:"Account email."`
	Password string `help:"Account password. Prompted when omitted."`
}

func (cmd *RegisterCmd) Run(ctx *Context) error {
	form := controller.RegisterForm{
		Name:            cmd.Name,
		Email:           cmd.Email,
		Password:        cmd.Password,
		ConfirmPassword: cmd.Password,
	}
	if form.Name == "" || form.Email == "" || form.Password == "" {
		if err := promptRegister(&form); err != nil {
			return err
		}
	}

	c := controller.NewRegisterController(ctx.Oracle, ctx.Users())
	if err := c.Register(ctx.Ctx, form); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Account created. Signed in as %s\n", form.Email)
	return nil
}

func promptRegister(f *controller.RegisterForm) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&f.Name),
			huh.NewInput().Title("Email").Value(&f.Email),
			huh.NewInput().
				Title("Password").
				Description(fmt.Sprintf("At least %d characters", constants.MinPasswordLength)).
				EchoMode(huh.EchoModePassword).
				Value(&f.Password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&f.ConfirmPassword),
		),
	).Run()
}

type LoginCmd struct {
	Email    string `help:"Account email."`
	Password string `help:"Account password. Prompted when omitted."`
}

func (cmd *LoginCmd) Run(ctx *Context) error {
	email, password := cmd.Email, cmd.Password
	if email == "" || password == "" {
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	c := controller.NewLoginController(ctx.Oracle)
	if err := c.Login(ctx.Ctx, email, password); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Signed in as %s\n", email)
	return nil
}

type LogoutCmd struct{}

func (cmd *LogoutCmd) Run(ctx *Context) error {
	if _, ok := ctx.Oracle.CurrentUser(); !ok {
		ctx.println("Not signed in.")
		return nil
	}
	if err := ctx.Oracle.SignOut(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	ctx.println("✓ Signed out")
	return nil
}

type WhoamiCmd struct{}

func (cmd *WhoamiCmd) Run(ctx *Context) error {
	uid, ok := ctx.Oracle.CurrentUser()
	if !ok {
		ctx.println("Not signed in.")
		return nil
	}
	user, err := ctx.Users().Current(ctx.Ctx)
	if errors.Is(err, docstore.ErrNotFound) {
		ctx.printf("Signed in as %s (no profile)\n", uid)
		return nil
	}
	if err != nil {
		return err
	}
	ctx.printf("%s <%s>\n", user.Name, user.Email)
	ctx.printf("User ID: %s\n", uid)
	return nil
}
