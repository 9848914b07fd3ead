package cli

import (
	"context"
	"errors"

	"github.com/vikinglab/contentvault/internal/common"
)

func (a *App) Register(ctx context.Context) error {

	userName, err := GetSimpleText(a.reader, "-Enter username")
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	password, err := GetPassword()
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			printlnFn("Username is already taken")
		case errors.Is(err, common.ErrorUnavailable):
			printlnFn("Server unavailable")
		default:
			printlnFn("Registration unsuccessful:", err.Error())
		}
		return err
	}

	a.userName = userName
	printlnFn("Registration successful")
	return nil
}

func (a *App) Login(ctx context.Context) error {

	userName, err := GetSimpleText(a.reader, "-Enter username")
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	password, err := GetPassword()
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			printlnFn("Invalid username or password")
		case errors.Is(err, common.ErrorUnavailable):
			printlnFn("Server unavailable")
		default:
			printlnFn("Login unsuccessful:", err.Error())
		}
		return err
	}

	a.userName = userName
	printlnFn("Login successful")
	return nil
}
