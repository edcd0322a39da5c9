package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, full name and password and creates an email
// account. The password is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Register(ctx, email, password, fullName)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Email, u.AuthProvider)
	return nil
}

// RegisterGoogle creates an account from a Google ID token pasted by the user.
func (a *App) RegisterGoogle(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Paste Google ID token", a.out)
	if err != nil {
		return err
	}
	u, err := a.authService.RegisterGoogle(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Email, u.AuthProvider)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.userEmail = u.Email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) LoginGoogle(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Paste Google ID token", a.out)
	if err != nil {
		return err
	}
	u, err := a.authService.LoginGoogle(ctx, token)
	if err != nil {
		return err
	}
	a.userEmail = u.Email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout revokes the refresh token and forgets the session.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.userEmail = ""
	return err
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.authService.WhoAmI(ctx)
	if err != nil {
		return err
	}
	name, country := "", ""
	if u.Profile != nil {
		name, country = u.Profile.FullName, u.Profile.CountryCode
	}
	fmt.Fprintf(a.out, "id:       %s\nemail:    %s\nname:     %s\ncountry:  %s\nprovider: %s\nstatus:   %s\n",
		u.ID, u.Email, name, country, u.AuthProvider, u.Status)
	return nil
}
