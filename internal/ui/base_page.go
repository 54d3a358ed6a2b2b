package ui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/platform/logger"
)

const (
	cancelButton = "//button[normalize-space(.)='Cancel']"
	pageTitle    = ".MuiBox-root.MuiBox-root-6 > :first-child"

	nameInput     = "input[name='name']"
	usernameInput = "input[name='username']"
	emailInput    = "input[name='email']"
	phoneInput    = "input[name='phone']"
)

var formInputs = map[domain.Field]string{
	domain.FieldName:     nameInput,
	domain.FieldUsername: usernameInput,
	domain.FieldEmail:    emailInput,
	domain.FieldPhone:    phoneInput,
}

// basePage holds what every page needs: the driver and the app's base URL.
type basePage struct {
	driver  Driver
	baseURL string
	logger  *slog.Logger
}

func newBasePage(driver Driver, baseURL string, l *slog.Logger) basePage {
	return basePage{
		driver:  driver,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Component(l, "ui"),
	}
}

func (p basePage) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, p.logger)
}

func (p basePage) navigate(ctx context.Context, path string) error {
	return p.driver.Navigate(ctx, p.baseURL+"/"+path)
}

// Cancel clicks the form's Cancel button.
func (p basePage) Cancel(ctx context.Context) error {
	p.log(ctx).Info("cancel form")
	return p.driver.Click(ctx, cancelButton)
}

// Title returns the heading of the current page.
func (p basePage) Title(ctx context.Context) (string, error) {
	return p.driver.Text(ctx, pageTitle)
}

// fill types every defined field of rec into the form. Undefined fields
// are left as they are.
func (p basePage) fill(ctx context.Context, rec domain.UserRecord) error {
	for _, f := range domain.UserFields {
		v, err := rec.Get(f)
		if err != nil {
			return err
		}
		value, ok := v.Get()
		if !ok {
			continue
		}
		if err := p.driver.SetValue(ctx, formInputs[f], value); err != nil {
			return err
		}
	}
	return nil
}
