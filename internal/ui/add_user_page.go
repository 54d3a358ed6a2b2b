package ui

import (
	"context"
	"log/slog"

	"github.com/phrazzld/users-qa/internal/domain"
)

const addUserButton = "//button[normalize-space(.)='Add User']"

// AddUserPage is the Add User form.
type AddUserPage struct {
	basePage
}

// NewAddUserPage returns the page for the app at baseURL.
func NewAddUserPage(driver Driver, baseURL string, l *slog.Logger) *AddUserPage {
	return &AddUserPage{basePage: newBasePage(driver, baseURL, l)}
}

// Navigate opens the form.
func (p *AddUserPage) Navigate(ctx context.Context) error {
	p.log(ctx).Info("navigate to add user page")
	return p.navigate(ctx, "add")
}

// Fill types the defined fields of user into the form.
func (p *AddUserPage) Fill(ctx context.Context, user domain.UserRecord) error {
	p.log(ctx).Info("filling user form", "user", user.String())
	return p.fill(ctx, user)
}

// Save submits the form.
func (p *AddUserPage) Save(ctx context.Context) error {
	p.log(ctx).Info("save user")
	return p.driver.Click(ctx, addUserButton)
}
